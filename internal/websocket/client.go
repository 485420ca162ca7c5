package websocket

import (
	"context"
	"time"

	ws "github.com/coder/websocket"
)

const (
	sendBufferSize = 16
	pingInterval   = 30 * time.Second
	writeTimeout   = 10 * time.Second
)

// Client is one admin page subscribed to the change feed.
type Client struct {
	hub     *Hub
	conn    *ws.Conn
	adminID string
	send    chan []byte
}

func NewClient(hub *Hub, conn *ws.Conn, adminID string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		adminID: adminID,
		send:    make(chan []byte, sendBufferSize),
	}
}

// Run subscribes the client and blocks until the connection ends.
func (c *Client) Run(ctx context.Context) {
	c.hub.Register(c)
	defer c.hub.Unregister(c)

	// CloseRead discards anything the page sends and cancels ctx once
	// the peer goes away.
	ctx = c.conn.CloseRead(ctx)
	c.feed(ctx)
}

// feed forwards notifications and keeps the connection alive with pings.
func (c *Client) feed(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.withTimeout(ctx, func(ctx context.Context) error {
				return c.conn.Write(ctx, ws.MessageText, msg)
			}); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.withTimeout(ctx, c.conn.Ping); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (c *Client) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return fn(ctx)
}
