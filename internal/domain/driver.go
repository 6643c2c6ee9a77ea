package domain

import (
	"time"
)

type DriverCategory string

const (
	CategoryTrailer DriverCategory = "trailer"
	Category12W     DriverCategory = "12w"
	CategoryLowbed  DriverCategory = "lowbed"
)

var DriverCategories = []DriverCategory{CategoryTrailer, Category12W, CategoryLowbed}

type Driver struct {
	DriverID    string         `json:"driver_id"`
	DisplayName string         `json:"display_name"`
	Category    DriverCategory `json:"category"`
	Phone       string         `json:"phone,omitempty"`
	Active      bool           `json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	Version     int32          `json:"-"`
}
