package domain

import "github.com/google/uuid"

// City carries the demographic and economic indicators of one target market.
// Read-only input supplied by the persistence collaborator: the pipeline
// forwards cities to the market unit and the scoring engine, never writes them.
type City struct {
	ID                   uuid.UUID `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	Country              string    `json:"country" db:"country"`
	Population           int64     `json:"population" db:"population"`
	GDPPerCapita         float64   `json:"gdp_per_capita" db:"gdp_per_capita"`
	PurchasingPowerIndex float64   `json:"purchasing_power_index" db:"purchasing_power_index"`
	EcommercePenetration float64   `json:"ecommerce_penetration" db:"ecommerce_penetration"`
	CompetitionDensity   float64   `json:"competition_density" db:"competition_density"`
	AverageOrderValue    float64   `json:"average_order_value" db:"average_order_value"`
	InternetPenetration  float64   `json:"internet_penetration" db:"internet_penetration"`
}

// AsPayload converts the city into the field mapping the market unit's prompt
// is built from.
func (c City) AsPayload() Payload {
	return Payload{
		"name":                   c.Name,
		"country":                c.Country,
		"population":             c.Population,
		"gdp_per_capita":         c.GDPPerCapita,
		"purchasing_power_index": c.PurchasingPowerIndex,
		"ecommerce_penetration":  c.EcommercePenetration,
		"competition_density":    c.CompetitionDensity,
		"average_order_value":    c.AverageOrderValue,
		"internet_penetration":   c.InternetPenetration,
	}
}
