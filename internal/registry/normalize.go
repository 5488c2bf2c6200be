package registry

import (
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/i474232898/spray-advisory/internal/common"
)

// productNamespace seeds deterministic product IDs.
var productNamespace = uuid.MustParse("6f1d7f0e-4a53-5b52-9d0b-8f6c2f3c1a10")

// Field aliases seen across registry exports, keyed after foldKey.
var (
	nameKeys         = []string{"productname", "name", "product", "tradename"}
	regNumberKeys    = []string{"registrationnumber", "productnumber", "productno", "registrationno", "regno", "apvmanumber", "number"}
	holderKeys       = []string{"registrant", "holder", "registrationholder", "registrantname", "company"}
	constituentKeys  = []string{"activeconstituents", "activeconstituent", "activeingredients", "activeingredient", "actives", "constituents"}
	statusKeys       = []string{"status", "registrationstatus", "productstatus"}
	registeredKeys   = []string{"registrationdate", "registereddate", "dateregistered", "firstregistered", "approvaldate"}
	expiryKeys       = []string{"expirydate", "registrationexpiry", "expiry", "expires", "expirationdate"}
	restrictionsKeys = []string{"restrictions", "restriction", "conditions", "conditionsofuse"}
)

var dateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "02/01/2006", "2/1/2006"}

// normalizeRecord maps one registry record of any known shape to a Product.
// ok is false when the record has no usable product name.
func normalizeRecord(rec gjson.Result) (Product, bool) {
	fields := make(map[string]gjson.Result)
	rec.ForEach(func(k, v gjson.Result) bool {
		fields[foldKey(k.String())] = v
		return true
	})

	lookup := func(keys []string) gjson.Result {
		for _, k := range keys {
			if v, ok := fields[k]; ok && v.Exists() && v.Type != gjson.Null {
				return v
			}
		}
		return gjson.Result{}
	}

	name := strings.TrimSpace(lookup(nameKeys).String())
	if name == "" {
		return Product{}, false
	}

	p := Product{
		Name:               name,
		RegistrationNumber: strings.TrimSpace(lookup(regNumberKeys).String()),
		Holder:             strings.TrimSpace(lookup(holderKeys).String()),
		ActiveConstituents: listValue(lookup(constituentKeys), ","),
		Status:             strings.TrimSpace(lookup(statusKeys).String()),
		Category:           categorize(name),
		RegisteredAt:       parseDate(lookup(registeredKeys).String()),
		Restrictions:       listValue(lookup(restrictionsKeys), ";"),
	}
	if p.Status == "" || p.Active() {
		p.Status = StatusActive
	}
	if exp := parseDate(lookup(expiryKeys).String()); !exp.IsZero() {
		p.ExpiresAt = &exp
	}
	p.ID = productID(p)

	return p, true
}

// listValue accepts a delimited string or an array (of strings or delimited strings).
func listValue(v gjson.Result, sep string) []string {
	if !v.Exists() {
		return []string{}
	}
	out := []string{}
	if v.IsArray() {
		for _, item := range v.Array() {
			out = append(out, splitTrim(item.String(), sep)...)
		}
		return out
	}
	return append(out, splitTrim(v.String(), sep)...)
}

func splitTrim(s, sep string) []string {
	if sep == "," {
		return common.SplitList(s)
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func categorize(name string) Category {
	switch {
	case common.HasAny(strings.ToLower(name), "pesticide", "herbicide", "fungicide"):
		return CategoryPesticide
	case common.HasAny(strings.ToLower(name), "veterinary", "animal"):
		return CategoryVeterinary
	default:
		return CategoryOther
	}
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// foldKey lowercases k and drops everything but letters and digits, so
// "Product Name", "product_name" and "productName" collide. A leading
// underscore survives to keep CKAN's "_id" apart from "id".
func foldKey(k string) string {
	var b strings.Builder
	for i, r := range k {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case i == 0 && r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

func productID(p Product) string {
	key := p.RegistrationNumber
	if key == "" {
		key = p.Name
	}
	return uuid.NewSHA1(productNamespace, []byte(strings.ToUpper(key))).String()
}
