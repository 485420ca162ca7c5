package model

import "time"

// AdminOwner is the owner name reported for items without a vendor.
const AdminOwner = "Admin"

type Price struct {
	City  string  `json:"city" bson:"city"`
	Price float64 `json:"price" bson:"price"`
}

type Item struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Prices      []Price   `json:"prices" bson:"prices"`
	CategoryID  string    `json:"category" bson:"category"`
	VendorID    *string   `json:"vendor" bson:"vendor"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Ref is the summary of a referenced record placed in a populated response.
type Ref struct {
	ID   string `json:"id" bson:"_id"`
	Name string `json:"name" bson:"name"`
}

// ItemView is an item with its category and vendor references populated.
// A category that no longer exists is reported by id alone.
type ItemView struct {
	Item
	Category *Ref   `json:"category"`
	Vendor   *Ref   `json:"vendor"`
	Owner    string `json:"owner"`
}

// NewItemView builds a populated view, deriving Owner from the vendor.
func NewItemView(it Item, category, vendor *Ref) ItemView {
	if category == nil && it.CategoryID != "" {
		category = &Ref{ID: it.CategoryID}
	}
	owner := AdminOwner
	if vendor != nil {
		owner = vendor.Name
	}
	return ItemView{Item: it, Category: category, Vendor: vendor, Owner: owner}
}

// ItemPatch holds the fields of a partial item update. VendorSet with a nil
// VendorID clears the vendor.
type ItemPatch struct {
	Name        *string
	Description *string
	Prices      []Price
	CategoryID  *string
	VendorSet   bool
	VendorID    *string
	Image       *string
	IsActive    *bool
}

func (p ItemPatch) Apply(it *Item) {
	if p.Name != nil {
		it.Name = *p.Name
	}
	if p.Description != nil {
		it.Description = *p.Description
	}
	if p.Prices != nil {
		it.Prices = append([]Price{}, p.Prices...)
	}
	if p.CategoryID != nil {
		it.CategoryID = *p.CategoryID
	}
	if p.VendorSet {
		it.VendorID = p.VendorID
	}
	if p.Image != nil {
		it.Image = *p.Image
	}
	if p.IsActive != nil {
		it.IsActive = *p.IsActive
	}
}
