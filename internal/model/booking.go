package model

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

// BookingStatuses lists every status in display order.
var BookingStatuses = []BookingStatus{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted}

func (s BookingStatus) Valid() bool {
	for _, v := range BookingStatuses {
		if s == v {
			return true
		}
	}
	return false
}

type BookingItem struct {
	ItemID   string  `json:"itemId" bson:"itemId"`
	ItemName string  `json:"itemName" bson:"itemName"`
	Price    float64 `json:"price" bson:"price"`
	Date     string  `json:"date" bson:"date"`
	TimeSlot string  `json:"timeSlot" bson:"timeSlot"`
	VendorID string  `json:"vendorId,omitempty" bson:"vendorId,omitempty"`
}

type Address struct {
	Street    string `json:"street" bson:"street"`
	City      string `json:"city" bson:"city"`
	State     string `json:"state" bson:"state"`
	ZipCode   string `json:"zipCode" bson:"zipCode"`
	Country   string `json:"country" bson:"country"`
	IsPrimary bool   `json:"isPrimary,omitempty" bson:"isPrimary,omitempty"`
}

type Booking struct {
	ID              string        `json:"id" bson:"_id"`
	UserID          string        `json:"userId" bson:"userId"`
	Items           []BookingItem `json:"items" bson:"items"`
	TotalAmount     float64       `json:"totalAmount" bson:"totalAmount"`
	Status          BookingStatus `json:"status" bson:"status"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty" bson:"paymentIntentId,omitempty"`
	Address         Address       `json:"address" bson:"address"`
	CreatedAt       time.Time     `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt" bson:"updatedAt"`
}

// BookingPatch holds the fields of a partial booking update.
type BookingPatch struct {
	UserID          *string
	Items           []BookingItem
	TotalAmount     *float64
	Status          *BookingStatus
	PaymentIntentID *string
	Address         *Address
}

func (p BookingPatch) Apply(b *Booking) {
	if p.UserID != nil {
		b.UserID = *p.UserID
	}
	if p.Items != nil {
		b.Items = append([]BookingItem{}, p.Items...)
	}
	if p.TotalAmount != nil {
		b.TotalAmount = *p.TotalAmount
	}
	if p.Status != nil {
		b.Status = *p.Status
	}
	if p.PaymentIntentID != nil {
		b.PaymentIntentID = *p.PaymentIntentID
	}
	if p.Address != nil {
		b.Address = *p.Address
	}
}
