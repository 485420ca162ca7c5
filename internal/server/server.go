package server

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/rs/cors"

	"github.com/dukerupert/eventory/internal/auth"
	"github.com/dukerupert/eventory/internal/handler"
	"github.com/dukerupert/eventory/internal/middleware"
	ws "github.com/dukerupert/eventory/internal/websocket"
)

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

// Stores is the storage backend the API runs on.
type Stores struct {
	Categories handler.CategoryStore
	Items      handler.ItemStore
	Vendors    handler.VendorStore
	Bookings   handler.BookingStore
	Admins     handler.AdminStore
	Ping       func(context.Context) error
}

type Options struct {
	Tokens  *auth.TokenIssuer
	Cookie  handler.CookieOptions
	Origins []string
	// TrustedProxies may set the client address used for login throttling.
	TrustedProxies []netip.Prefix
	Images         handler.ImageStore
	Payments       handler.PaymentLookup
}

type Server struct {
	hub         *ws.Hub
	tokens      *auth.TokenIssuer
	origins     []string
	clientIP    func(*http.Request) string
	ping        func(context.Context) error
	categoryH   *handler.CategoryHandler
	itemH       *handler.ItemHandler
	vendorH     *handler.VendorHandler
	bookingH    *handler.BookingHandler
	adminH      *handler.AdminHandler
	authH       *handler.AuthHandler
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(st Stores, opts Options, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	return &Server{
		hub:         hub,
		tokens:      opts.Tokens,
		origins:     opts.Origins,
		clientIP:    middleware.ClientIP(opts.TrustedProxies),
		ping:        st.Ping,
		categoryH:   handler.NewCategoryHandler(st.Categories, opts.Images, hub, logger.With("component", "category")),
		itemH:       handler.NewItemHandler(st.Items, st.Categories, st.Vendors, opts.Images, hub, logger.With("component", "item")),
		vendorH:     handler.NewVendorHandler(st.Vendors, hub, logger.With("component", "vendor")),
		bookingH:    handler.NewBookingHandler(st.Bookings, opts.Payments, hub, logger.With("component", "booking")),
		adminH:      handler.NewAdminHandler(st.Admins, hub, logger.With("component", "admin")),
		authH:       handler.NewAuthHandler(st.Admins, opts.Tokens, opts.Cookie, logger.With("component", "auth")),
		rateLimiter: middleware.NewRateLimiter(loginLimit, loginWindow),
		logger:      logger,
	}
}

// RateLimiter returns the login rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the change feed hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/auth/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("POST /api/auth/logout", s.authH.Logout)
	outerMux.HandleFunc("GET /api/health", handler.Health(s.ping, s.logger.With("component", "health")))

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)
	outerMux.Handle("/", middleware.RequireAuth(s.tokens)(protectedMux))

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return middleware.RequestLogger(s.logger.With("component", "http"))(c.Handler(outerMux))
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, s.clientIP)
	return rl(h).ServeHTTP
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", s.authH.Me)
	mux.HandleFunc("GET /api/ws", ws.HandleWebSocket(s.hub, s.origins, s.logger.With("component", "websocket")))

	// Categories
	mux.HandleFunc("GET /api/category", s.categoryH.List)
	mux.HandleFunc("POST /api/category", s.categoryH.Create)
	mux.HandleFunc("GET /api/category/{id}", s.categoryH.Get)
	mux.HandleFunc("PUT /api/category/{id}", s.categoryH.Update)
	mux.HandleFunc("DELETE /api/category/{id}", s.categoryH.Delete)

	// Items
	mux.HandleFunc("GET /api/items", s.itemH.List)
	mux.HandleFunc("POST /api/items", s.itemH.Create)
	mux.HandleFunc("GET /api/items/{id}", s.itemH.Get)
	mux.HandleFunc("PUT /api/items/{id}", s.itemH.Update)
	mux.HandleFunc("DELETE /api/items/{id}", s.itemH.Delete)
	mux.HandleFunc("PATCH /api/items/{id}/deactivate", s.itemH.Deactivate)

	// Vendors
	mux.HandleFunc("GET /api/vendor", s.vendorH.List)
	mux.HandleFunc("POST /api/vendor", s.vendorH.Create)
	mux.HandleFunc("GET /api/vendor/{id}", s.vendorH.Get)
	mux.HandleFunc("PUT /api/vendor/{id}", s.vendorH.Update)
	mux.HandleFunc("DELETE /api/vendor/{id}", s.vendorH.Delete)
	mux.HandleFunc("PATCH /api/vendor/{id}/status", s.vendorH.ToggleStatus)
	mux.HandleFunc("PATCH /api/vendor/{id}/discard", s.vendorH.Discard)

	// Bookings
	mux.HandleFunc("GET /api/booking/admin/bookings", s.bookingH.List)
	mux.HandleFunc("POST /api/booking/admin/bookings", s.bookingH.Create)
	mux.HandleFunc("GET /api/booking/admin/bookings/stats", s.bookingH.Stats)
	mux.HandleFunc("GET /api/booking/admin/bookings/user/{userId}", s.bookingH.ListByUser)
	mux.HandleFunc("GET /api/booking/admin/bookings/status/{status}", s.bookingH.ListByStatus)
	mux.HandleFunc("GET /api/booking/admin/bookings/{id}", s.bookingH.Get)
	mux.HandleFunc("PUT /api/booking/admin/bookings/{id}", s.bookingH.Update)
	mux.HandleFunc("DELETE /api/booking/admin/bookings/{id}", s.bookingH.Delete)
	mux.HandleFunc("GET /api/booking/admin/bookings/payment/{id}", s.bookingH.Payment)

	// Admin accounts, superadmin only
	superadmin := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireSuperAdmin(h)
	}
	mux.Handle("GET /api/admins", superadmin(s.adminH.List))
	mux.Handle("POST /api/admins", superadmin(s.adminH.Create))
	mux.Handle("DELETE /api/admins/{id}", superadmin(s.adminH.Delete))
	mux.Handle("PATCH /api/admins/{id}/role", superadmin(s.adminH.UpdateRole))
}
