package compliance

import (
	"slices"
	"sort"
	"strings"

	"github.com/i474232898/spray-advisory/internal/common"
	"github.com/i474232898/spray-advisory/internal/registry"
)

// Label is regulatory metadata derived from a Product. It is recomputed from
// the product on every use and never cached on its own.
//
// The derivation is a keyword classification over the product name and active
// constituents; it approximates label content and is not an authoritative source.
type Label struct {
	ApprovedUses             []string            `json:"approvedUses"`
	ApplicationRates         map[string]string   `json:"applicationRates"`
	WithholdingPeriods       map[string]int      `json:"withholdingPeriods"`
	SafetyDirections         []string            `json:"safetyDirections"`
	FirstAid                 []string            `json:"firstAid"`
	EnvironmentalPrecautions []string            `json:"environmentalPrecautions"`
	RestrictedUse            bool                `json:"restrictedUse"`
	StateRestrictions        map[string][]string `json:"stateRestrictions"`
}

// DeriveLabel classifies p against the label profiles and jurisdiction tables.
// Matching profiles are merged in table order.
func (rs *RuleSet) DeriveLabel(p registry.Product) Label {
	haystack := productHaystack(p)

	l := Label{
		ApprovedUses:             []string{},
		ApplicationRates:         map[string]string{},
		WithholdingPeriods:       map[string]int{},
		SafetyDirections:         []string{},
		FirstAid:                 []string{},
		EnvironmentalPrecautions: []string{},
		StateRestrictions:        map[string][]string{},
	}

	matched := false
	for _, prof := range rs.Label.Profiles {
		if _, ok := common.FirstMatchFold(haystack, prof.Match...); !ok {
			continue
		}
		matched = true
		mergeProfile(&l, prof)
	}
	if !matched {
		mergeProfile(&l, rs.Label.Default)
	} else {
		l.FirstAid = appendUnique(l.FirstAid, rs.Label.Default.FirstAid...)
	}

	for _, r := range p.Restrictions {
		if common.HasAny(strings.ToLower(r), "water", "stream") {
			l.EnvironmentalPrecautions = appendUnique(l.EnvironmentalPrecautions, r)
		}
	}

	if _, ok := rs.restrictedSubstance(p); ok {
		l.RestrictedUse = true
	}

	for state, list := range rs.JurisdictionRestrictions {
		for _, r := range list {
			if _, ok := common.FirstMatchFold(haystack, r.AppliesTo...); ok {
				l.StateRestrictions[state] = append(l.StateRestrictions[state], r.Text)
			}
		}
	}

	return l
}

func mergeProfile(l *Label, prof LabelProfile) {
	l.ApprovedUses = appendUnique(l.ApprovedUses, prof.ApprovedUses...)
	l.SafetyDirections = appendUnique(l.SafetyDirections, prof.Safety...)
	l.FirstAid = appendUnique(l.FirstAid, prof.FirstAid...)
	l.EnvironmentalPrecautions = appendUnique(l.EnvironmentalPrecautions, prof.Environmental...)
	l.RestrictedUse = l.RestrictedUse || prof.RestrictedUse

	for _, crop := range sortedKeys(prof.Rates) {
		if _, exists := l.ApplicationRates[crop]; !exists {
			l.ApplicationRates[crop] = prof.Rates[crop]
		}
	}
	for crop, days := range prof.WithholdingDays {
		// The longest withholding period wins.
		if days > l.WithholdingPeriods[crop] {
			l.WithholdingPeriods[crop] = days
		}
	}
}

// restrictedSubstance returns the first restricted substance found among p's constituents.
func (rs *RuleSet) restrictedSubstance(p registry.Product) (string, bool) {
	for _, c := range p.ActiveConstituents {
		if m, ok := common.FirstMatchFold(c, rs.RestrictedSubstances...); ok {
			return m, true
		}
	}
	return "", false
}

func productHaystack(p registry.Product) string {
	parts := append([]string{p.Name, string(p.Category)}, p.ActiveConstituents...)
	return strings.ToLower(strings.Join(parts, " | "))
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		if !slices.Contains(dst, it) {
			dst = append(dst, it)
		}
	}
	return dst
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
