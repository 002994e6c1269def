package fmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/usecase"
	"stock_watch/internal/platform/externalapi/fmp/dto"
	"stock_watch/internal/shared/ratelimiter"
)

// ErrNoProfile is returned when the API answers without a profile object.
var ErrNoProfile = errors.New("fmp: profile not available")

// Client はFMP外部APIから銘柄一覧・価格・企業プロフィールを取得するMarketFetcher実装です。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// ClientがMarketFetcherを実装していることをコンパイル時に検証します。
var _ usecase.MarketFetcher = (*Client)(nil)

// NewClient は指定された設定・HTTPクライアント・レートリミッターでClientを生成します。
// limiterがnilの場合は待機しません。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	return &Client{cfg: cfg.withDefaults(), client: client, limiter: limiter}
}

// FetchStockList は全銘柄の一覧（シンボル・名称・価格）を取得します。
func (c *Client) FetchStockList(ctx context.Context) ([]entity.ListEntry, error) {
	var body dto.StockListResponse
	if err := c.get(ctx, "/api/v3/company/stock/list", &body); err != nil {
		return nil, err
	}
	out := make([]entity.ListEntry, 0, len(body.SymbolsList))
	for _, s := range body.SymbolsList {
		out = append(out, entity.ListEntry{
			Symbol:   s.Symbol,
			Name:     s.Name,
			Price:    s.Price,
			Exchange: s.Exchange,
		})
	}
	return out, nil
}

// FetchPrices は指定銘柄のリアルタイム価格をチャンク単位で取得します。
// 1チャンクでも失敗した場合はエラーを返します。
func (c *Client) FetchPrices(ctx context.Context, symbols []string) ([]entity.PriceTick, error) {
	out := make([]entity.PriceTick, 0, len(symbols))
	for _, part := range chunk(symbols, c.cfg.ChunkSize) {
		var body dto.PriceListResponse
		escaped := make([]string, len(part))
		for i, sym := range part {
			escaped[i] = url.PathEscape(sym)
		}
		path := "/api/v3/stock/real-time-price/" + strings.Join(escaped, ",")
		if err := c.get(ctx, path, &body); err != nil {
			return nil, err
		}
		prices := body.CompaniesPriceList
		if len(prices) == 0 && body.Symbol != "" {
			prices = []dto.StockPrice{body.StockPrice}
		}
		for _, p := range prices {
			out = append(out, entity.PriceTick{Symbol: p.Symbol, Price: p.Price})
		}
	}
	return out, nil
}

// FetchProfile は1銘柄の企業プロフィールを取得します。
func (c *Client) FetchProfile(ctx context.Context, symbol string) (entity.Profile, error) {
	var body dto.ProfileResponse
	if err := c.get(ctx, "/api/v3/company/profile/"+url.PathEscape(symbol), &body); err != nil {
		return entity.Profile{}, err
	}
	if body.Profile == nil {
		return entity.Profile{}, fmt.Errorf("%w: %s", ErrNoProfile, symbol)
	}
	p := body.Profile
	profile := entity.Profile{
		Symbol:       symbol,
		Industry:     p.Industry,
		Sector:       p.Sector,
		LastDividend: p.LastDiv,
		CompanyLogo:  p.Image,
		Changes:      p.Changes,
	}
	if p.ChangesPercentage != nil {
		v := float64(*p.ChangesPercentage)
		profile.PercentageChange = &v
	}
	return profile, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	if c.limiter != nil {
		if err := c.limiter.WaitIfNeeded(ctx); err != nil {
			return err
		}
	}

	q := url.Values{}
	q.Set("apikey", c.cfg.APIKey)
	u := fmt.Sprintf("%s%s?%s", strings.TrimRight(c.cfg.BaseURL, "/"), path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return fmt.Errorf("fmp http %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("fmp decode %s: %w", path, err)
	}
	return nil
}

// chunk は配列をsize件ずつの配列に分割します。
func chunk(items []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make([][]string, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
