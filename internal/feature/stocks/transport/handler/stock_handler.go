// Package handler はstocksフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stock_watch/internal/feature/stocks/domain/entity"
	"stock_watch/internal/feature/stocks/transport/http/dto"
	"stock_watch/internal/feature/stocks/usecase"
)

// StockService は銘柄スナップショットの参照とお気に入り操作のインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type StockService interface {
	Snapshot() []entity.Stock
	Favorites() []entity.Stock
	Find(symbol string) (entity.Stock, error)
	SetFavorite(symbol string, favorite bool) (entity.Stock, error)
}

// ProfileRequester は表示中の銘柄のプロフィール取得を起動します。
type ProfileRequester interface {
	RequestProfiles(ctx context.Context, symbols []string) (int, error)
}

// EventSource は更新通知の購読を提供します。
type EventSource interface {
	Subscribe() (<-chan entity.Event, func())
}

// DefaultKeepAlive is how often an idle event stream sends a comment line.
const DefaultKeepAlive = 25 * time.Second

// StockHandler は銘柄に関するHTTPリクエストを処理します。
type StockHandler struct {
	svc       StockService
	profiles  ProfileRequester
	events    EventSource
	keepAlive time.Duration
}

// NewStockHandler は新しい StockHandler を作成します。
func NewStockHandler(svc StockService, profiles ProfileRequester, events EventSource) *StockHandler {
	return &StockHandler{svc: svc, profiles: profiles, events: events, keepAlive: DefaultKeepAlive}
}

// List はメモリキャッシュ上の全銘柄を返します。
//
// GET /stocks
func (h *StockHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromStocks(h.svc.Snapshot()))
}

// Favorites はお気に入り銘柄のみを返します。
//
// GET /stocks/favorites
func (h *StockHandler) Favorites(c *gin.Context) {
	c.JSON(http.StatusOK, dto.FromStocks(h.svc.Favorites()))
}

// Get は1銘柄を返します。
//
// GET /stocks/:symbol
func (h *StockHandler) Get(c *gin.Context) {
	symbol := c.Param("symbol")
	if err := entity.ValidateSymbol(symbol); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	s, err := h.svc.Find(symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromStock(s))
}

// AddFavorite は銘柄をお気に入りに追加します。
//
// PUT /stocks/:symbol/favorite
func (h *StockHandler) AddFavorite(c *gin.Context) {
	h.setFavorite(c, true)
}

// RemoveFavorite はお気に入りフラグを外します。銘柄自体は残ります。
//
// DELETE /stocks/:symbol/favorite
func (h *StockHandler) RemoveFavorite(c *gin.Context) {
	h.setFavorite(c, false)
}

func (h *StockHandler) setFavorite(c *gin.Context, favorite bool) {
	symbol := c.Param("symbol")
	if err := entity.ValidateSymbol(symbol); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	s, err := h.svc.SetFavorite(symbol, favorite)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromStock(s))
}

// RequestProfiles は表示中の銘柄のうち、まだプロフィールを持たないものを取得します。
// 一部の銘柄で失敗しても、1件以上適用できていれば200を返します。
//
// POST /stocks/profiles {"symbols":["AAPL","MSFT"]}
func (h *StockHandler) RequestProfiles(c *gin.Context) {
	var req dto.ProfilesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}
	applied, err := h.profiles.RequestProfiles(c.Request.Context(), req.Symbols)
	if err != nil && applied == 0 {
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	resp := dto.ProfilesResponse{Applied: applied}
	if err != nil {
		resp.Error = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// Events は更新通知をServer-Sent Eventsで配信します。
// 接続直後に現在のスナップショットを "snapshot" イベントとして送ります。
//
// GET /stocks/events
func (h *StockHandler) Events(c *gin.Context) {
	events, cancel := h.events.Subscribe()
	defer cancel()

	c.Header("Cache-Control", "no-store")
	c.Header("X-Accel-Buffering", "no")
	c.SSEvent("snapshot", dto.FromStocks(h.svc.Snapshot()))
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if _, err := io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return false
			}
			return true
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(ev.Kind), dto.FromEvent(ev))
			return true
		}
	})
	slog.Debug("event stream closed", "remote", c.ClientIP())
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, usecase.ErrNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, entity.ErrInvalidSymbol):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}
