package compliance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/spray-advisory/internal/registry"
)

func TestDefaultRulesLoad(t *testing.T) {
	rs := DefaultRules()
	require.NotNil(t, rs)
	assert.Same(t, rs, DefaultRules())
	assert.Equal(t, "Agriculture Victoria", rs.Contact(" vic "))
	assert.Equal(t, rs.DefaultContact, rs.Contact("Atlantis"))
	assert.Contains(t, rs.NotifiableDiseases, "citrus canker")
}

func TestLoadRulesValidation(t *testing.T) {
	tests := map[string]string{
		"missing contact": `permit: {type: P}`,
		"missing permit":  `default_contact: C`,
		"diseases without requirements": `
default_contact: C
permit: {type: P}
notifiable_diseases: [fire blight]`,
		"restriction without keywords": `
default_contact: C
permit: {type: P}
jurisdiction_restrictions:
  NSW:
    - text: something`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := LoadRules([]byte(doc))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errInvalidRules))
		})
	}

	_, err := LoadRules([]byte("default_contact: [unclosed"))
	assert.Error(t, err)
}

func TestLoadRulesNormalizesStates(t *testing.T) {
	rs, err := LoadRules([]byte(`
default_contact: C
permit: {type: P}
state_contacts: {nsw: "NSW DPI"}
jurisdiction_restrictions:
  nsw:
    - applies_to: [copper]
      text: copper rule`))
	require.NoError(t, err)
	assert.Equal(t, "NSW DPI", rs.Contact("NSW"))

	label := rs.DeriveLabel(registry.Product{Name: "Copper Spray"})
	assert.Equal(t, []string{"copper rule"}, label.StateRestrictions["NSW"])
}

func TestDeriveLabel(t *testing.T) {
	rs := DefaultRules()

	copper := catalogProduct(t, "45112")
	label := rs.DeriveLabel(copper)
	assert.Contains(t, label.ApprovedUses, "Citrus: black spot, melanose, scab")
	assert.Equal(t, "50 g per 10 L water", label.ApplicationRates["Citrus"])
	assert.Contains(t, label.EnvironmentalPrecautions, "Not for use near waterways")
	assert.NotEmpty(t, label.FirstAid)
	assert.False(t, label.RestrictedUse)
	assert.Contains(t, label.StateRestrictions, "QLD")
	assert.NotContains(t, label.StateRestrictions, "NSW")

	paraquat := rs.DeriveLabel(catalogProduct(t, "58890"))
	assert.True(t, paraquat.RestrictedUse)
	assert.Len(t, paraquat.StateRestrictions["NSW"], 2)

	unknown := rs.DeriveLabel(registry.Product{Name: "Mystery Tonic"})
	assert.Empty(t, unknown.ApprovedUses)
	assert.Equal(t, []string{"Read the label before use"}, unknown.SafetyDirections)
}

func TestDeriveLabelIsDeterministic(t *testing.T) {
	rs := DefaultRules()
	for _, p := range registry.FallbackSearch("e", 100) {
		assert.Equal(t, rs.DeriveLabel(p), rs.DeriveLabel(p), p.Name)
	}
}

func TestDeriveLabelLongestWithholdingWins(t *testing.T) {
	rs := DefaultRules()
	// Matches both the copper and the sulfur profiles.
	label := rs.DeriveLabel(registry.Product{
		Name:               "Copper Sulfur Dust",
		ActiveConstituents: []string{"Copper oxychloride", "Sulfur"},
	})
	assert.Equal(t, 7, label.WithholdingPeriods["Grapevines"])
	assert.Equal(t, 1, label.WithholdingPeriods["Citrus"])
}
