package registry

import (
	"slices"
	"strings"
	"time"
)

// Category is the coarse product class inferred from the product name.
type Category string

const (
	CategoryPesticide  Category = "pesticide"
	CategoryVeterinary Category = "veterinary"
	CategoryOther      Category = "other"
)

// StatusActive is the registration status of a product that may be sold and used.
const StatusActive = "Active"

// Product is a normalized chemical product registration.
// Values handed out by the Client are copies; the cached originals are never modified.
type Product struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	RegistrationNumber string     `json:"registrationNumber"`
	Holder             string     `json:"holder"`
	ActiveConstituents []string   `json:"activeConstituents"`
	Status             string     `json:"status"`
	Category           Category   `json:"category"`
	RegisteredAt       time.Time  `json:"registeredAt"`
	ExpiresAt          *time.Time `json:"expiresAt,omitempty"`
	Restrictions       []string   `json:"restrictions"`
}

// Active reports whether the registration is current. Registries disagree on
// the case of the status value.
func (p Product) Active() bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), StatusActive)
}

func (p Product) clone() Product {
	p.ActiveConstituents = slices.Clone(p.ActiveConstituents)
	p.Restrictions = slices.Clone(p.Restrictions)
	if p.ExpiresAt != nil {
		t := *p.ExpiresAt
		p.ExpiresAt = &t
	}
	return p
}

func cloneProducts(in []Product) []Product {
	out := make([]Product, len(in))
	for i, p := range in {
		out[i] = p.clone()
	}
	return out
}
