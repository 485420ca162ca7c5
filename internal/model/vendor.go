package model

import (
	"errors"
	"time"
)

type PaymentMode string

const (
	PaymentUPI  PaymentMode = "upi"
	PaymentBank PaymentMode = "bank"
)

func (m PaymentMode) Valid() bool {
	return m == PaymentUPI || m == PaymentBank
}

type BankDetails struct {
	AccountNumber     string `json:"accountNumber" bson:"accountNumber"`
	IFSCCode          string `json:"ifscCode" bson:"ifscCode"`
	AccountHolderName string `json:"accountHolderName" bson:"accountHolderName"`
}

type Vendor struct {
	ID          string       `json:"id" bson:"_id"`
	Name        string       `json:"name" bson:"name"`
	Email       string       `json:"email" bson:"email"`
	Password    string       `json:"-" bson:"password"`
	Phone       string       `json:"phone,omitempty" bson:"phone,omitempty"`
	Address     string       `json:"address,omitempty" bson:"address,omitempty"`
	CompanyName string       `json:"companyName,omitempty" bson:"companyName,omitempty"`
	PaymentMode PaymentMode  `json:"paymentMode" bson:"paymentMode"`
	UPIID       string       `json:"upiId,omitempty" bson:"upiId,omitempty"`
	BankDetails *BankDetails `json:"bankDetails,omitempty" bson:"bankDetails,omitempty"`
	City        string       `json:"city,omitempty" bson:"city,omitempty"`
	IsActive    bool         `json:"isActive" bson:"isActive"`
	IsDiscarded bool         `json:"isDiscarded" bson:"isDiscarded"`
	CreatedAt   time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// ValidatePayment checks the payment mode and the details it requires.
func (v *Vendor) ValidatePayment() error {
	switch v.PaymentMode {
	case PaymentUPI:
		if v.UPIID == "" {
			return errors.New("upiId is required when paymentMode is upi")
		}
	case PaymentBank:
		b := v.BankDetails
		if b == nil || b.AccountNumber == "" || b.IFSCCode == "" || b.AccountHolderName == "" {
			return errors.New("bankDetails accountNumber, ifscCode and accountHolderName are required when paymentMode is bank")
		}
	default:
		return errors.New("paymentMode must be upi or bank")
	}
	return nil
}

// VendorPatch holds the fields of a partial vendor update. There is no
// password field: password changes do not go through updates.
type VendorPatch struct {
	Name        *string
	Email       *string
	Phone       *string
	Address     *string
	CompanyName *string
	PaymentMode *PaymentMode
	UPIID       *string
	BankDetails *BankDetails
	City        *string
	IsActive    *bool
	IsDiscarded *bool
}

func (p VendorPatch) Apply(v *Vendor) {
	if p.Name != nil {
		v.Name = *p.Name
	}
	if p.Email != nil {
		v.Email = *p.Email
	}
	if p.Phone != nil {
		v.Phone = *p.Phone
	}
	if p.Address != nil {
		v.Address = *p.Address
	}
	if p.CompanyName != nil {
		v.CompanyName = *p.CompanyName
	}
	if p.PaymentMode != nil {
		v.PaymentMode = *p.PaymentMode
	}
	if p.UPIID != nil {
		v.UPIID = *p.UPIID
	}
	if p.BankDetails != nil {
		bd := *p.BankDetails
		v.BankDetails = &bd
	}
	if p.City != nil {
		v.City = *p.City
	}
	if p.IsActive != nil {
		v.IsActive = *p.IsActive
	}
	if p.IsDiscarded != nil {
		v.IsDiscarded = *p.IsDiscarded
	}
}
