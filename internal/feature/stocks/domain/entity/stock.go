// Package entity defines the domain models for the stocks feature.
package entity

import (
	"errors"
	"fmt"
)

// ErrInvalidSymbol is returned when a ticker symbol fails validation.
var ErrInvalidSymbol = errors.New("invalid symbol")

// MaxSymbolLength matches the width of the symbol column in the stocks table.
const MaxSymbolLength = 20

// Stock is the canonical per-symbol record shared by the store, the memory cache
// and every consumer of snapshots.
type Stock struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name,omitempty"`
	Price            float64 `json:"price"`
	PercentageChange float64 `json:"percentage_change"`
	Changes          float64 `json:"changes"`
	LastDividend     float64 `json:"last_dividend"`
	Sector           string  `json:"sector,omitempty"`
	Industry         string  `json:"industry,omitempty"`
	CompanyLogo      string  `json:"company_logo,omitempty"`
	IsFavorite       bool    `json:"is_favorite"`
	HasProfileData   bool    `json:"has_profile_data"`
}

// ValidateSymbol は銘柄シンボルが保存可能な形式かどうかを検証します。
// 英数字と ".", "-", "^", "=" のみを許可します（例: "BRK.B", "^GSPC", "EURUSD=X"）。
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSymbol)
	}
	if len(symbol) > MaxSymbolLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidSymbol, symbol, MaxSymbolLength)
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '^', r == '=':
		default:
			return fmt.Errorf("%w: %q contains %q", ErrInvalidSymbol, symbol, r)
		}
	}
	return nil
}
