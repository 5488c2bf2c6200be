package compliance

import (
	"fmt"
	"strings"

	"github.com/i474232898/spray-advisory/internal/common"
	"github.com/i474232898/spray-advisory/internal/registry"
)

// Disclaimer must accompany every compliance or permit verdict shown to a user.
const Disclaimer = "This is general guidance, not legal advice. Always read the product label and verify requirements independently with the relevant authority."

// Messages used by the universal fallback for unresolvable products.
const (
	WarnProductUnavailable    = "Product information not available"
	RequireVerifyRegistration = "Verify registration before use"
)

// ApplicationContext describes where and how a product is to be applied.
type ApplicationContext struct {
	State           string `json:"state" validate:"required"`
	Crop            string `json:"crop,omitempty"`
	Method          string `json:"method,omitempty"`
	NearWaterways   bool   `json:"nearWaterways"`
	ResidentialArea bool   `json:"residentialArea"`
}

// Result is an advisory compliance verdict. Compliant=false always comes with
// at least one warning.
type Result struct {
	Compliant    bool     `json:"compliant"`
	Warnings     []string `json:"warnings"`
	Requirements []string `json:"requirements"`
	Restrictions []string `json:"restrictions"`
}

// PermitResult describes whether a permit is needed and whom to contact.
type PermitResult struct {
	PermitRequired bool   `json:"permitRequired"`
	PermitType     string `json:"permitType,omitempty"`
	Contact        string `json:"contact"`
	ProcessingTime string `json:"processingTime,omitempty"`
}

// Unresolved is the conservative verdict for a product that cannot be found.
func Unresolved() Result {
	return Result{
		Compliant:    false,
		Warnings:     []string{WarnProductUnavailable},
		Requirements: []string{RequireVerifyRegistration},
		Restrictions: []string{},
	}
}

// Check evaluates product and label against ctx. Every rule contributes;
// none short-circuits the others.
func (rs *RuleSet) Check(product *registry.Product, label *Label, ctx ApplicationContext) Result {
	if product == nil || label == nil {
		return Unresolved()
	}

	res := Result{
		Compliant:    true,
		Warnings:     []string{},
		Requirements: []string{},
		Restrictions: []string{},
	}
	state := normalizeState(ctx.State)

	// Registration must be current.
	if !product.Active() {
		res.Compliant = false
		status := product.Status
		if status == "" {
			status = "unknown"
		}
		res.Warnings = append(res.Warnings, fmt.Sprintf("Product registration status is %s", status))
	}

	if restrictions := label.StateRestrictions[state]; len(restrictions) > 0 {
		res.Restrictions = appendUnique(res.Restrictions, restrictions...)
		res.Requirements = append(res.Requirements,
			fmt.Sprintf("Consult the %s agriculture department about state-specific restrictions", state))
	}
	res.Restrictions = appendUnique(res.Restrictions, product.Restrictions...)

	if ctx.NearWaterways {
		var matching []string
		for _, p := range label.EnvironmentalPrecautions {
			if common.HasAny(strings.ToLower(p), "water", "stream") {
				matching = append(matching, p)
			}
		}
		if len(matching) > 0 {
			res.Warnings = append(res.Warnings, "Application near waterways - this product is harmful to aquatic environments")
			res.Requirements = appendUnique(res.Requirements, matching...)
		}
	}

	if ctx.ResidentialArea && label.RestrictedUse {
		res.Warnings = append(res.Warnings, "Restricted-use product in a residential area")
		res.Requirements = append(res.Requirements, "Check local council regulations before applying in residential areas")
	}

	if crop := strings.TrimSpace(ctx.Crop); crop != "" {
		if use, ok := approvedUseFor(label, crop); !ok {
			res.Compliant = false
			res.Warnings = append(res.Warnings, fmt.Sprintf("Product is not approved for %s", crop))
		} else {
			res.Requirements = append(res.Requirements, cropRequirements(label, use, crop)...)
		}
	}

	if method := strings.TrimSpace(ctx.Method); method != "" {
		for _, key := range sortedKeys(rs.MethodRequirements) {
			if common.ContainsFold(method, key) {
				res.Requirements = appendUnique(res.Requirements, rs.MethodRequirements[key])
			}
		}
	}

	// Notifiable diseases override everything else.
	if disease, ok := rs.notifiableDisease(product, label); ok {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s is a notifiable disease - report it before taking any action", disease))
		res.Requirements = appendUnique(res.Requirements, rs.NotifiableRequirements...)
	}

	if !res.Compliant && len(res.Warnings) == 0 {
		res.Warnings = append(res.Warnings, "Compliance could not be confirmed")
	}
	return res
}

// CheckPermit reports whether applying product in state needs a permit.
// A nil product is treated as needing verification.
func (rs *RuleSet) CheckPermit(product *registry.Product, state string) PermitResult {
	contact := rs.Contact(state)

	if product == nil {
		return PermitResult{
			PermitRequired: true,
			PermitType:     "Registration verification required",
			Contact:        contact,
		}
	}

	if _, ok := rs.restrictedSubstance(*product); ok {
		return PermitResult{
			PermitRequired: true,
			PermitType:     rs.Permit.Type,
			Contact:        contact,
			ProcessingTime: rs.Permit.ProcessingTime,
		}
	}

	return PermitResult{Contact: contact}
}

func approvedUseFor(label *Label, crop string) (string, bool) {
	for _, use := range label.ApprovedUses {
		if common.ContainsFold(use, crop) {
			return use, true
		}
	}
	return "", false
}

// cropRequirements echoes the rate and withholding period recorded for crop.
func cropRequirements(label *Label, use, crop string) []string {
	var out []string
	for _, key := range sortedKeys(label.ApplicationRates) {
		if common.ContainsFold(use, key) || strings.EqualFold(key, crop) {
			out = append(out, fmt.Sprintf("Apply at %s on %s", label.ApplicationRates[key], key))
			break
		}
	}
	for _, key := range sortedKeys(label.WithholdingPeriods) {
		if common.ContainsFold(use, key) || strings.EqualFold(key, crop) {
			out = append(out, fmt.Sprintf("Observe a withholding period of %d days for %s", label.WithholdingPeriods[key], key))
			break
		}
	}
	return out
}

func (rs *RuleSet) notifiableDisease(product *registry.Product, label *Label) (string, bool) {
	if d, ok := common.FirstMatchFold(product.Name, rs.NotifiableDiseases...); ok {
		return d, true
	}
	for _, use := range label.ApprovedUses {
		if d, ok := common.FirstMatchFold(use, rs.NotifiableDiseases...); ok {
			return d, true
		}
	}
	return "", false
}
