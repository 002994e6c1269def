// Package dto defines data transfer objects for the stocks HTTP API.
package dto

import "stock_watch/internal/feature/stocks/domain/entity"

// StockItem は銘柄1件のレスポンスDTOです。
type StockItem struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Price            float64 `json:"price"`
	PercentageChange float64 `json:"percentageChange"`
	Changes          float64 `json:"changes"`
	LastDividend     float64 `json:"lastDividend"`
	Sector           string  `json:"sector,omitempty"`
	Industry         string  `json:"industry,omitempty"`
	CompanyLogo      string  `json:"companyLogo,omitempty"`
	IsFavorite       bool    `json:"isFavorite"`
	HasProfileData   bool    `json:"hasProfileData"`
}

// ProfilesRequest は表示中の銘柄のプロフィール取得を要求します。
type ProfilesRequest struct {
	Symbols []string `json:"symbols" binding:"required,min=1,max=100,dive,required"`
}

// ProfilesResponse は適用されたプロフィール数を返します。
type ProfilesResponse struct {
	Applied int    `json:"applied"`
	Error   string `json:"error,omitempty"` // 一部の銘柄で取得に失敗した場合
}

// EventMessage is the payload of one server-sent event.
type EventMessage struct {
	Kind   string      `json:"kind"`
	Stocks []StockItem `json:"stocks,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// ErrorResponse はエラーレスポンスの共通形式です。
type ErrorResponse struct {
	Error string `json:"error"`
}

// FromStock converts a domain record to its response form.
func FromStock(s entity.Stock) StockItem {
	return StockItem{
		Symbol:           s.Symbol,
		Name:             s.Name,
		Price:            s.Price,
		PercentageChange: s.PercentageChange,
		Changes:          s.Changes,
		LastDividend:     s.LastDividend,
		Sector:           s.Sector,
		Industry:         s.Industry,
		CompanyLogo:      s.CompanyLogo,
		IsFavorite:       s.IsFavorite,
		HasProfileData:   s.HasProfileData,
	}
}

// FromStocks converts records and always returns a non-nil slice.
func FromStocks(stocks []entity.Stock) []StockItem {
	out := make([]StockItem, 0, len(stocks))
	for _, s := range stocks {
		out = append(out, FromStock(s))
	}
	return out
}

// FromEvent converts a notifier event to its wire form.
func FromEvent(ev entity.Event) EventMessage {
	msg := EventMessage{Kind: string(ev.Kind)}
	if len(ev.Stocks) > 0 {
		msg.Stocks = FromStocks(ev.Stocks)
	}
	if ev.Err != nil {
		msg.Error = ev.Err.Error()
	}
	return msg
}
