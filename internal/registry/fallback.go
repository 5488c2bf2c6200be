package registry

import (
	"strings"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// fallbackCatalog is served when the registry cannot be reached. It is a small
// set of common garden products, not a mirror of the registry.
var fallbackCatalog = func() []Product {
	products := []Product{
		{
			Name:               "Copper Oxychloride Fungicide",
			RegistrationNumber: "45112",
			Holder:             "Garden Chemicals Australia Pty Ltd",
			ActiveConstituents: []string{"Copper oxychloride"},
			RegisteredAt:       date(2009, time.March, 17),
			Restrictions:       []string{"Not for use near waterways"},
		},
		{
			Name:               "Bordeaux Copper Spray",
			RegistrationNumber: "52307",
			Holder:             "Garden Chemicals Australia Pty Ltd",
			ActiveConstituents: []string{"Copper sulfate", "Calcium hydroxide"},
			RegisteredAt:       date(2012, time.August, 2),
			Restrictions:       []string{"Not for use near waterways"},
		},
		{
			Name:               "Glyphosate 360 Herbicide",
			RegistrationNumber: "60411",
			Holder:             "Weed Control Products Pty Ltd",
			ActiveConstituents: []string{"Glyphosate"},
			RegisteredAt:       date(2015, time.May, 11),
			Restrictions:       []string{"Do not apply within 6 hours of expected rain"},
		},
		{
			Name:               "Paraquat 250 Herbicide",
			RegistrationNumber: "58890",
			Holder:             "Weed Control Products Pty Ltd",
			ActiveConstituents: []string{"Paraquat dichloride"},
			RegisteredAt:       date(2006, time.October, 30),
			Restrictions:       []string{"Restricted chemical product - supply to authorised persons only"},
		},
		{
			Name:               "White Oil Insect Spray",
			RegistrationNumber: "47763",
			Holder:             "Garden Chemicals Australia Pty Ltd",
			ActiveConstituents: []string{"Petroleum oil"},
			RegisteredAt:       date(2010, time.January, 25),
			Restrictions:       []string{"Do not apply when temperature exceeds 30C"},
		},
		{
			Name:               "Lime Sulfur Fungicide",
			RegistrationNumber: "39844",
			Holder:             "Orchard Supplies Pty Ltd",
			ActiveConstituents: []string{"Calcium polysulfide"},
			RegisteredAt:       date(2004, time.June, 8),
			Restrictions:       []string{},
		},
	}
	for i := range products {
		products[i].Status = StatusActive
		products[i].Category = categorize(products[i].Name)
		products[i].ID = productID(products[i])
	}
	return products
}()

// FallbackSearch filters the built-in catalog by substring match on the product
// name or any active constituent. query is matched case-insensitively.
func FallbackSearch(query string, limit int) []Product {
	q := normalizeQuery(query)
	out := []Product{}
	if q == "" {
		return out
	}

	for _, p := range fallbackCatalog {
		if limit > 0 && len(out) >= limit {
			break
		}
		if matchesProduct(p, q) {
			out = append(out, p.clone())
		}
	}
	return out
}

func matchesProduct(p Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) || strings.EqualFold(p.RegistrationNumber, q) {
		return true
	}
	for _, c := range p.ActiveConstituents {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}
