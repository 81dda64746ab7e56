package models

import "fmt"

// Category is one of the fixed classification labels.
type Category string

const (
	CategoryAgent   Category = "agent"
	CategoryScript  Category = "script"
	CategoryLib     Category = "lib"
	CategoryConfig  Category = "config"
	CategoryData    Category = "data"
	CategoryDoc     Category = "doc"
	CategoryUI      Category = "ui"
	CategoryTest    Category = "test"
	CategoryCache   Category = "cache"
	CategoryUnknown Category = "unknown"
)

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryAgent,
	CategoryScript,
	CategoryLib,
	CategoryConfig,
	CategoryData,
	CategoryDoc,
	CategoryUI,
	CategoryTest,
	CategoryCache,
	CategoryUnknown,
}

// IsValid reports whether c belongs to the closed category set.
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCategory converts a string to a Category, rejecting unknown labels.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.IsValid() {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}
