package model

import "time"

type Category struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Slug        string    `json:"slug" bson:"slug"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	ParentID    *string   `json:"parentId" bson:"parentId"`
	Level       int       `json:"level" bson:"level"`
	Path        []string  `json:"path" bson:"path"`
	IsActive    bool      `json:"isActive" bson:"isActive"`
	Image       string    `json:"image,omitempty" bson:"image,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Placement is a category's position in the tree. ParentID nil means root.
type Placement struct {
	ParentID *string
	Level    int
	Path     []string
}

// CategoryPatch holds the fields of a partial category update. Nil fields are
// left unchanged.
type CategoryPatch struct {
	Name        *string
	Slug        *string
	Description *string
	IsActive    *bool
	Image       *string
	Placement   *Placement
}

func (p CategoryPatch) Apply(c *Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Slug != nil {
		c.Slug = *p.Slug
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.Image != nil {
		c.Image = *p.Image
	}
	if p.Placement != nil {
		c.ParentID = p.Placement.ParentID
		c.Level = p.Placement.Level
		c.Path = append([]string{}, p.Placement.Path...)
	}
}
