package record

import (
	"time"

	"github.com/spektr-org/impactlens/engine"
)

// ProductKind is the variant tag of a Product.
type ProductKind string

const (
	ProductPhysical ProductKind = "physical"
	ProductDigital  ProductKind = "digital"
)

// Product conditions of physical goods.
const (
	ConditionNew     = "new"
	ConditionLikeNew = "like-new"
	ConditionGood    = "good"
	ConditionFair    = "fair"
)

// Product is a marketplace listing. Exactly one of Physical or Digital is set,
// matching Kind.
type Product struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       float64          `json:"price"`
	Currency    string           `json:"currency,omitempty"`
	Kind        ProductKind      `json:"type"`
	Category    string           `json:"category"`
	SellerID    string           `json:"sellerId,omitempty"`
	Status      string           `json:"status,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Physical    *PhysicalDetails `json:"physical,omitempty"`
	Digital     *DigitalDetails  `json:"digital,omitempty"`
}

// PhysicalDetails is the payload of a physical product.
type PhysicalDetails struct {
	Condition string    `json:"condition"`
	Brand     string    `json:"brand,omitempty"`
	Model     string    `json:"model,omitempty"`
	Weight    float64   `json:"weight,omitempty"`
	Inventory Inventory `json:"inventory"`
}

// Inventory tracks stock of a physical product.
type Inventory struct {
	Stock       int        `json:"stock"`
	Backorder   bool       `json:"backorder"`
	RestockDate *time.Time `json:"restockDate,omitempty"`
}

// DigitalDetails is the payload of a digital product.
type DigitalDetails struct {
	FileType    string  `json:"fileType"`
	FileSize    float64 `json:"fileSize"`
	Version     string  `json:"version,omitempty"`
	LicenseType string  `json:"licenseType,omitempty"`
}

func (p Product) GetID() string { return p.ID }

// Condition returns the condition of a physical product, or "" for digital
// goods.
func (p Product) Condition() string {
	if p.Physical == nil {
		return ""
	}
	return p.Physical.Condition
}

// StockState encodes availability for the engine's stock dimension.
// Digital products are always in stock.
func (p Product) StockState() string {
	if p.Kind == ProductDigital || p.Physical == nil {
		return engine.StockIn
	}
	switch inv := p.Physical.Inventory; {
	case inv.Stock > 0:
		return engine.StockIn
	case inv.Backorder:
		return engine.StockBackorder
	default:
		return engine.StockOut
	}
}

// Validate checks that the variant payload matches Kind.
func (p Product) Validate() error {
	v := problems{kind: KindProduct, id: p.ID}
	if p.Title == "" {
		v.addf("title is required")
	}
	v.nonNegative("price", p.Price)
	v.oneOf("status", p.Status, "active", "sold", "draft")

	switch p.Kind {
	case ProductPhysical:
		if p.Physical == nil {
			v.addf("physical product has no physical details")
		} else {
			v.oneOf("condition", p.Physical.Condition, ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair)
			if p.Physical.Inventory.Stock < 0 {
				v.addf("stock must not be negative (got %d)", p.Physical.Inventory.Stock)
			}
		}
		if p.Digital != nil {
			v.addf("physical product carries digital details")
		}
	case ProductDigital:
		if p.Digital == nil {
			v.addf("digital product has no digital details")
		} else {
			v.oneOf("license type", p.Digital.LicenseType, "single-use", "multi-seat", "subscription")
		}
		if p.Physical != nil {
			v.addf("digital product carries physical details")
		}
	default:
		v.addf("product type %q is not physical or digital", p.Kind)
	}
	return v.err()
}
