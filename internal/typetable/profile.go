package typetable

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/PDLPorters/genpp/internal/config"
)

// Profile is the top-level structure of a genpp profile file. All
// sections are optional; omitted sections fall back to the built-in
// defaults.
type Profile struct {
	// Types lists the table entries, in dispatch order.
	Types []Entry `yaml:"types"`

	// Substitution configures the stream-wide marker replacement.
	Substitution Substitution `yaml:"substitution,omitempty"`

	// Dispatch configures the emitted switch construct.
	Dispatch Dispatch `yaml:"dispatch,omitempty"`
}

// Substitution is the literal injected for the reserved marker word on
// every input line.
type Substitution struct {
	// Marker is the reserved word to replace (default GENPP_DATADIR).
	Marker string `yaml:"marker,omitempty"`

	// Value is the replacement literal.
	Value string `yaml:"value,omitempty"`
}

// Dispatch controls the generated default case.
type Dispatch struct {
	// OnFail is the C function called with the unmatched tag value
	// (default "barf"). It must be in scope in the generated file.
	OnFail string `yaml:"onfail,omitempty"`
}

// ParseProfile parses and validates profile data. The path is used only
// for error messages.
func ParseProfile(data []byte, path string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.applyDefaults()
	return &p, nil
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading profile: %w", err)
	}
	return ParseProfile(data, path)
}

// DefaultProfile returns the configuration used when no profile file is
// given: the built-in table and the config package defaults.
func DefaultProfile() *Profile {
	p := &Profile{Types: Default().Entries()}
	p.applyDefaults()
	return p
}

// Table builds the validated table from the profile's entries.
func (p *Profile) Table() (*Table, error) {
	return New(p.Types)
}

func (p *Profile) validate(path string) error {
	// New performs entry-level validation; run it here so a bad file
	// is rejected at load time, not at first expansion.
	if _, err := New(p.Types); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	if p.Substitution.Value != "" && p.Substitution.Marker == "" {
		return fmt.Errorf("%s: substitution value set but marker is empty", path)
	}
	return nil
}

func (p *Profile) applyDefaults() {
	if p.Substitution.Marker == "" {
		p.Substitution.Marker = config.DefaultSubstMarker
	}
	if p.Substitution.Value == "" {
		p.Substitution.Value = config.DefaultSubstValue
	}
	if p.Dispatch.OnFail == "" {
		p.Dispatch.OnFail = config.DefaultFailCall
	}
}
