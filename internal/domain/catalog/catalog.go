package catalog

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound          = errors.New("catalog: product not found")
	ErrInvalidQuantity   = errors.New("catalog: quantity must be greater than zero")
	ErrInsufficientStock = errors.New("catalog: insufficient stock")
)

type ProductStatus string

const (
	ProductActive   ProductStatus = "ACTIVE"
	ProductDraft    ProductStatus = "DRAFT"
	ProductArchived ProductStatus = "ARCHIVED"
)

type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Status      ProductStatus
	CategoryID  string
	Images      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone copies the product including its image list.
func (p Product) Clone() Product {
	p.Images = append([]string(nil), p.Images...)
	return p
}

type Category struct {
	ID   string
	Name string
	Slug string
}

// StockLine is a quantity of one product to reserve or return.
type StockLine struct {
	ProductID string
	Quantity  int
}

// MergeLines sums quantities of lines that name the same product, keeping first-seen order.
func MergeLines(lines []StockLine) []StockLine {
	index := make(map[string]int, len(lines))
	out := make([]StockLine, 0, len(lines))
	for _, l := range lines {
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}
