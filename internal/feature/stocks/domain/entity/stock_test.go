package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSymbol(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		symbol  string
		wantErr bool
	}{
		{name: "plain ticker", symbol: "AAPL"},
		{name: "class share", symbol: "BRK.B"},
		{name: "index", symbol: "^GSPC"},
		{name: "currency pair", symbol: "EURUSD=X"},
		{name: "hyphenated", symbol: "RDS-A"},
		{name: "max length", symbol: strings.Repeat("A", MaxSymbolLength)},
		{name: "empty", symbol: "", wantErr: true},
		{name: "too long", symbol: strings.Repeat("A", MaxSymbolLength+1), wantErr: true},
		{name: "space", symbol: "AA PL", wantErr: true},
		{name: "sql meta", symbol: "A';--", wantErr: true},
		{name: "non ascii", symbol: "トヨタ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateSymbol(tt.symbol)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSymbol)
				return
			}
			assert.NoError(t, err)
		})
	}
}
