package domain

import "github.com/google/uuid"

// Product is the product record a forecast is requested for. Supplied by the
// persistence collaborator; the pipeline never mutates it.
type Product struct {
	ID               uuid.UUID      `json:"id" db:"id"`
	Name             string         `json:"name" db:"name" validate:"required,min=1"`
	Description      string         `json:"description" db:"description"`
	Category         string         `json:"category" db:"category"`
	BasePrice        float64        `json:"base_price" db:"base_price" validate:"min=0"`
	ProductionMethod string         `json:"production_method" db:"production_method"`
	Specifications   map[string]any `json:"specifications,omitempty" db:"-"`
}

// Validate checks the minimal contract a forecast request needs from a product.
func (p *Product) Validate() error { return validate.Struct(p) }
