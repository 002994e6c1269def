// Package dto defines data transfer objects for the FMP API responses.
package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// StockListResponse is the body of /api/v3/company/stock/list.
type StockListResponse struct {
	SymbolsList []struct {
		Symbol   string  `json:"symbol"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Exchange string  `json:"exchange"`
	} `json:"symbolsList"`
}

// StockPrice is one entry of a real-time price response.
type StockPrice struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// PriceListResponse is the body of /api/v3/stock/real-time-price/{symbols}.
// A single-symbol request is answered with a bare StockPrice instead of a list.
type PriceListResponse struct {
	CompaniesPriceList []StockPrice `json:"companiesPriceList"`
	StockPrice
}

// ProfileResponse is the body of /api/v3/company/profile/{symbol}.
type ProfileResponse struct {
	Symbol  string `json:"symbol"`
	Profile *struct {
		CompanyName       string   `json:"companyName"`
		Price             float64  `json:"price"`
		LastDiv           *float64 `json:"lastDiv"`
		Changes           *float64 `json:"changes"`
		ChangesPercentage *Percent `json:"changesPercentage"`
		Industry          *string  `json:"industry"`
		Sector            *string  `json:"sector"`
		Image             *string  `json:"image"`
	} `json:"profile"`
}

// Percent accepts both a JSON number and the legacy "(+1.23%)" string form.
type Percent float64

func (p *Percent) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.Trim(s, "()% ")
		s = strings.TrimPrefix(s, "+")
		if s == "" {
			*p = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = Percent(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}
