package model

import "time"

// ProfileSource indicates how a merchant profile was created.
type ProfileSource string

const (
	// SourceBuiltin indicates the profile came from the known-merchant table.
	SourceBuiltin ProfileSource = "BUILTIN"
	// SourceAuto indicates the profile was classified by the language model.
	SourceAuto ProfileSource = "AUTO"
	// SourceManual indicates the profile was set via CLI command.
	SourceManual ProfileSource = "MANUAL"
)

// MerchantProfile classifies a merchant into a business type and the
// products it typically sells.
type MerchantProfile struct {
	LastUpdated time.Time
	Name        string
	Type        string
	Source      ProfileSource
	Products    []string
	UseCount    int
}

// IsUnknown reports whether the profile carries no classification.
func (p MerchantProfile) IsUnknown() bool {
	return p.Type == "" && len(p.Products) == 0
}
