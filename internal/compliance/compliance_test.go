package compliance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/spray-advisory/internal/registry"
)

func catalogProduct(t *testing.T, regNo string) registry.Product {
	t.Helper()
	got := registry.FallbackSearch(regNo, 1)
	require.Len(t, got, 1, "catalog product %s", regNo)
	return got[0]
}

func check(t *testing.T, p registry.Product, ctx ApplicationContext) Result {
	t.Helper()
	rs := DefaultRules()
	label := rs.DeriveLabel(p)
	return rs.Check(&p, &label, ctx)
}

func TestCheckActiveProductInNeutralContext(t *testing.T) {
	res := check(t, catalogProduct(t, "45112"), ApplicationContext{State: "NSW"})

	assert.True(t, res.Compliant)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, []string{"Not for use near waterways"}, res.Restrictions)
}

func TestCheckInactiveProductIsNotCompliant(t *testing.T) {
	p := catalogProduct(t, "45112")
	p.Status = "Cancelled"

	res := check(t, p, ApplicationContext{State: "NSW"})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Warnings, "Product registration status is Cancelled")
}

func TestCheckAcceptsUpperCaseActiveStatus(t *testing.T) {
	p := catalogProduct(t, "45112")
	p.Status = "ACTIVE"

	res := check(t, p, ApplicationContext{State: "NSW"})
	assert.True(t, res.Compliant)
	assert.Empty(t, res.Warnings)
}

func TestCheckStateRestrictions(t *testing.T) {
	res := check(t, catalogProduct(t, "45112"), ApplicationContext{State: "qld"})

	assert.True(t, res.Compliant)
	require.NotEmpty(t, res.Restrictions)
	assert.Contains(t, res.Restrictions[0], "Great Barrier Reef")
	assert.Contains(t, res.Requirements, "Consult the QLD agriculture department about state-specific restrictions")
}

func TestCheckNearWaterways(t *testing.T) {
	res := check(t, catalogProduct(t, "45112"), ApplicationContext{State: "NSW", NearWaterways: true})

	assert.True(t, res.Compliant)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "waterways")
	assert.Contains(t, res.Requirements, "Not for use near waterways")
	assert.Contains(t, res.Requirements,
		"Toxic to fish and aquatic organisms. Do not contaminate streams, rivers or waterways with the chemical or used containers")
}

func TestCheckNearWaterwaysWithoutPrecaution(t *testing.T) {
	res := check(t, registry.Product{Name: "Rose Tonic", Status: registry.StatusActive}, ApplicationContext{State: "VIC", NearWaterways: true})
	assert.True(t, res.Compliant)
	assert.Empty(t, res.Warnings)
}

func TestCheckResidentialRestrictedUse(t *testing.T) {
	res := check(t, catalogProduct(t, "58890"), ApplicationContext{State: "NSW", ResidentialArea: true})

	assert.Contains(t, res.Warnings, "Restricted-use product in a residential area")
	assert.Contains(t, res.Requirements, "Check local council regulations before applying in residential areas")
	assert.Contains(t, res.Restrictions, "Keep records of herbicide applications for 3 years")
	assert.Contains(t, res.Restrictions, "Notify neighbours before spraying restricted herbicides within 100 m of a dwelling")
	assert.Contains(t, res.Restrictions, "Restricted chemical product - supply to authorised persons only")

	res = check(t, catalogProduct(t, "45112"), ApplicationContext{State: "NSW", ResidentialArea: true})
	assert.Empty(t, res.Warnings)
}

func TestCheckCrop(t *testing.T) {
	copper := catalogProduct(t, "45112")

	res := check(t, copper, ApplicationContext{State: "NSW", Crop: "citrus"})
	assert.True(t, res.Compliant)
	assert.Contains(t, res.Requirements, "Apply at 50 g per 10 L water on Citrus")
	assert.Contains(t, res.Requirements, "Observe a withholding period of 1 days for Citrus")

	res = check(t, copper, ApplicationContext{State: "NSW", Crop: "Wheat"})
	assert.False(t, res.Compliant)
	assert.Contains(t, res.Warnings, "Product is not approved for Wheat")
}

func TestCheckApplicationMethod(t *testing.T) {
	res := check(t, catalogProduct(t, "60411"), ApplicationContext{State: "VIC", Method: "Aerial spraying"})
	assert.Contains(t, res.Requirements, "Aerial application must be carried out by a licensed aerial operator")
}

func TestCheckNotifiableDiseaseAlwaysAddsContact(t *testing.T) {
	p := registry.Product{
		Name:               "Citrus Canker Copper Spray",
		Status:             "Suspended",
		ActiveConstituents: []string{"Copper hydroxide"},
	}

	res := check(t, p, ApplicationContext{State: "QLD", Crop: "wheat", NearWaterways: true})

	assert.False(t, res.Compliant)
	assert.Contains(t, res.Requirements, "Contact the Department of Agriculture immediately (Exotic Plant Pest Hotline 1800 084 881)")
	assert.Contains(t, res.Requirements, "Do not move plant material or treat without authorization")
	assert.Contains(t, res.Warnings, "citrus canker is a notifiable disease - report it before taking any action")
	// The other rules still contributed.
	assert.Contains(t, res.Warnings, "Product registration status is Suspended")
	assert.Contains(t, res.Warnings, "Product is not approved for wheat")
}

func TestCheckUnresolvedProduct(t *testing.T) {
	rs := DefaultRules()
	label := Label{}

	for _, res := range []Result{
		rs.Check(nil, &label, ApplicationContext{State: "NSW"}),
		rs.Check(&registry.Product{Name: "x"}, nil, ApplicationContext{}),
	} {
		assert.False(t, res.Compliant)
		assert.Equal(t, []string{WarnProductUnavailable}, res.Warnings)
		assert.Equal(t, []string{RequireVerifyRegistration}, res.Requirements)
	}
}

func TestCheckNonCompliantAlwaysWarns(t *testing.T) {
	rs := DefaultRules()
	contexts := []ApplicationContext{
		{State: "NSW"},
		{State: "QLD", Crop: "wheat"},
		{State: "VIC", NearWaterways: true, ResidentialArea: true},
		{State: "XX", Crop: "citrus", Method: "air blast"},
	}
	for _, p := range registry.FallbackSearch("e", 100) {
		for _, status := range []string{registry.StatusActive, "Cancelled", ""} {
			p.Status = status
			label := rs.DeriveLabel(p)
			for _, ctx := range contexts {
				res := rs.Check(&p, &label, ctx)
				if !res.Compliant {
					assert.NotEmpty(t, res.Warnings, "%s/%q/%+v", p.Name, status, ctx)
				}
			}
		}
	}
}

func TestCheckPermit(t *testing.T) {
	rs := DefaultRules()

	paraquat := catalogProduct(t, "58890")
	got := rs.CheckPermit(&paraquat, "nsw")
	assert.Equal(t, PermitResult{
		PermitRequired: true,
		PermitType:     "Restricted Chemical Product permit",
		Contact:        "NSW Department of Primary Industries",
		ProcessingTime: "10-15 business days",
	}, got)

	copper := catalogProduct(t, "45112")
	got = rs.CheckPermit(&copper, "VIC")
	assert.False(t, got.PermitRequired)
	assert.Equal(t, "Agriculture Victoria", got.Contact)
	assert.Empty(t, got.PermitType)

	got = rs.CheckPermit(&copper, "ZZ")
	assert.Equal(t, "Contact your state agriculture department", got.Contact)

	got = rs.CheckPermit(nil, "WA")
	assert.True(t, got.PermitRequired)
	assert.Equal(t, "Registration verification required", got.PermitType)
	assert.Contains(t, got.Contact, "DPIRD")
}
