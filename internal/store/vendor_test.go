package store

import (
	"context"
	"errors"
	"testing"

	"github.com/dukerupert/eventory/internal/model"
)

func createVendor(t *testing.T, vs *VendorStore, name, email string) *model.Vendor {
	t.Helper()
	v, err := vs.Create(context.Background(), &model.Vendor{
		Name:        name,
		Email:       email,
		Password:    "hashed",
		PaymentMode: model.PaymentUPI,
		UPIID:       name + "@upi",
		City:        "Pune",
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("create vendor %s: %v", name, err)
	}
	return v
}

func TestVendorCreate(t *testing.T) {
	vs := NewVendorStore(setupTestDB(t))

	v := createVendor(t, vs, "Acme", "acme@example.com")
	if v.ID == "" {
		t.Error("expected non-empty ID")
	}
	if v.PaymentMode != model.PaymentUPI {
		t.Errorf("payment mode = %q", v.PaymentMode)
	}
	if v.BankDetails != nil {
		t.Errorf("bank details = %+v, want nil", v.BankDetails)
	}
	if v.Password != "hashed" {
		t.Errorf("password = %q, want stored hash", v.Password)
	}
}

func TestVendorCreateDuplicateEmail(t *testing.T) {
	vs := NewVendorStore(setupTestDB(t))
	createVendor(t, vs, "Acme", "acme@example.com")

	_, err := vs.Create(context.Background(), &model.Vendor{
		Name: "Other", Email: "ACME@example.com", Password: "x", PaymentMode: model.PaymentUPI,
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestVendorBankDetailsRoundTrip(t *testing.T) {
	vs := NewVendorStore(setupTestDB(t))
	ctx := context.Background()
	v := createVendor(t, vs, "Acme", "acme@example.com")

	mode := model.PaymentBank
	updated, err := vs.Update(ctx, v.ID, model.VendorPatch{
		PaymentMode: &mode,
		BankDetails: &model.BankDetails{AccountNumber: "123", IFSCCode: "IFSC0001", AccountHolderName: "Acme"},
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.BankDetails == nil || updated.BankDetails.IFSCCode != "IFSC0001" {
		t.Errorf("bank details = %+v", updated.BankDetails)
	}
	if updated.PaymentMode != model.PaymentBank {
		t.Errorf("payment mode = %q", updated.PaymentMode)
	}
}

func TestVendorListFilters(t *testing.T) {
	vs := NewVendorStore(setupTestDB(t))
	ctx := context.Background()

	createVendor(t, vs, "Acme", "acme@example.com")
	b := createVendor(t, vs, "Bright Lights", "bright@example.com")
	if _, err := vs.Update(ctx, b.ID, model.VendorPatch{City: strPtr("Mumbai"), IsDiscarded: boolPtr(true), IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pune, err := vs.List(ctx, VendorQuery{City: "PUNE"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(pune) != 1 || pune[0].Name != "Acme" {
		t.Errorf("pune = %+v", pune)
	}

	discarded, _ := vs.List(ctx, VendorQuery{IsDiscarded: boolPtr(true)})
	if len(discarded) != 1 || discarded[0].ID != b.ID {
		t.Errorf("discarded = %+v", discarded)
	}

	found, _ := vs.List(ctx, VendorQuery{Search: "mumbai"})
	if len(found) != 1 {
		t.Errorf("search by city = %d, want 1", len(found))
	}

	found, _ = vs.List(ctx, VendorQuery{Search: "acme@"})
	if len(found) != 1 {
		t.Errorf("search by email = %d, want 1", len(found))
	}
}
