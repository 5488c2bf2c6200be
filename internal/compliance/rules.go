package compliance

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

var errInvalidRules = errors.New("invalid rule set")

// RuleSet holds the data tables the evaluators run against.
type RuleSet struct {
	NotifiableDiseases       []string                             `yaml:"notifiable_diseases"`
	NotifiableRequirements   []string                             `yaml:"notifiable_requirements"`
	RestrictedSubstances     []string                             `yaml:"restricted_substances"`
	Permit                   PermitRule                           `yaml:"permit"`
	DefaultContact           string                               `yaml:"default_contact"`
	StateContacts            map[string]string                    `yaml:"state_contacts"`
	JurisdictionRestrictions map[string][]JurisdictionRestriction `yaml:"jurisdiction_restrictions"`
	MethodRequirements       map[string]string                    `yaml:"method_requirements"`
	Label                    LabelRules                           `yaml:"label"`
}

// PermitRule describes the permit issued for restricted substances.
type PermitRule struct {
	Type           string `yaml:"type"`
	ProcessingTime string `yaml:"processing_time"`
}

// JurisdictionRestriction applies Text to products whose name, category or
// constituents contain any AppliesTo keyword.
type JurisdictionRestriction struct {
	AppliesTo []string `yaml:"applies_to"`
	Text      string   `yaml:"text"`
}

// LabelRules drive DeriveLabel.
type LabelRules struct {
	Default  LabelProfile   `yaml:"default"`
	Profiles []LabelProfile `yaml:"profiles"`
}

// LabelProfile is the label content assumed for products matching any Match keyword.
type LabelProfile struct {
	Match           []string          `yaml:"match"`
	ApprovedUses    []string          `yaml:"approved_uses"`
	Rates           map[string]string `yaml:"rates"`
	WithholdingDays map[string]int    `yaml:"withholding_days"`
	Safety          []string          `yaml:"safety"`
	FirstAid        []string          `yaml:"first_aid"`
	Environmental   []string          `yaml:"environmental"`
	RestrictedUse   bool              `yaml:"restricted_use"`
}

// LoadRules parses and validates a YAML rule set.
func LoadRules(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := rs.validate(); err != nil {
		return nil, err
	}

	// Jurisdiction codes are matched upper-case.
	contacts := make(map[string]string, len(rs.StateContacts))
	for k, v := range rs.StateContacts {
		contacts[normalizeState(k)] = v
	}
	rs.StateContacts = contacts

	restrictions := make(map[string][]JurisdictionRestriction, len(rs.JurisdictionRestrictions))
	for k, v := range rs.JurisdictionRestrictions {
		restrictions[normalizeState(k)] = v
	}
	rs.JurisdictionRestrictions = restrictions

	return &rs, nil
}

func (rs *RuleSet) validate() error {
	switch {
	case strings.TrimSpace(rs.DefaultContact) == "":
		return fmt.Errorf("%w: default_contact is required", errInvalidRules)
	case strings.TrimSpace(rs.Permit.Type) == "":
		return fmt.Errorf("%w: permit.type is required", errInvalidRules)
	case len(rs.NotifiableDiseases) > 0 && len(rs.NotifiableRequirements) == 0:
		return fmt.Errorf("%w: notifiable_requirements must accompany notifiable_diseases", errInvalidRules)
	}
	for state, list := range rs.JurisdictionRestrictions {
		for i, r := range list {
			if strings.TrimSpace(r.Text) == "" || len(r.AppliesTo) == 0 {
				return fmt.Errorf("%w: jurisdiction_restrictions.%s[%d] needs text and applies_to", errInvalidRules, state, i)
			}
		}
	}
	return nil
}

var (
	defaultOnce  sync.Once
	defaultRules *RuleSet
)

// DefaultRules returns the embedded rule set. It panics if the embedded data
// is invalid, which is a build defect.
func DefaultRules() *RuleSet {
	defaultOnce.Do(func() {
		rs, err := LoadRules(defaultRulesYAML)
		if err != nil {
			panic(fmt.Sprintf("compliance: embedded rules: %v", err))
		}
		defaultRules = rs
	})
	return defaultRules
}

// Contact returns the jurisdiction's contact point, or the generic one for unknown codes.
func (rs *RuleSet) Contact(state string) string {
	if c, ok := rs.StateContacts[normalizeState(state)]; ok && c != "" {
		return c
	}
	return rs.DefaultContact
}

func normalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
