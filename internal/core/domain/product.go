package domain

import (
	"math"
	"strings"
	"time"
)

const (
	MaxNameLength        = 50
	MaxDescriptionLength = 100
	MaxPrice             = math.MaxInt32
	MaxCount             = math.MaxInt32

	// Unset is shown in place of empty optional text fields.
	Unset = "unset"
)

// Product is one stock item owned by the record store.
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Price       int64     `db:"price" json:"price"` // minor currency unit
	OrderDate   time.Time `db:"order_date" json:"order_date"`
	Category    string    `db:"category" json:"category"`
	Shelf       string    `db:"shelf" json:"shelf"`
	Count       int64     `db:"quantity" json:"count"`
	Description string    `db:"description" json:"description"`
	Version     int64     `db:"version" json:"version"` // optimistic locking
}

// ProductView is the display form of a Product. Empty optional text is
// replaced by Unset; the stored record is never modified.
type ProductView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	OrderDate   string `json:"order_date"`
	Category    string `json:"category"`
	Shelf       string `json:"shelf"`
	Count       int64  `json:"count"`
	Description string `json:"description"`
	Version     int64  `json:"version"`
}

func (p Product) View() ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		OrderDate:   p.OrderDate.Format(time.DateOnly),
		Category:    Display(p.Category),
		Shelf:       Display(p.Shelf),
		Count:       p.Count,
		Description: Display(p.Description),
		Version:     p.Version,
	}
}

// Display returns s, or Unset when s is blank.
func Display(s string) string {
	if strings.TrimSpace(s) == "" {
		return Unset
	}
	return s
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
