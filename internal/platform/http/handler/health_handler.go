// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CacheStats reports how many records the memory cache holds.
type CacheStats interface {
	Len() int
}

// WriterStats reports how many store batches are still queued.
type WriterStats interface {
	Pending() int
}

// HealthHandler はサービスヘルスチェック用の /healthz エンドポイントを処理します。
type HealthHandler struct {
	cache  CacheStats
	writer WriterStats
}

// NewHealthHandler creates a HealthHandler. Either argument may be nil.
func NewHealthHandler(cache CacheStats, writer WriterStats) *HealthHandler {
	return &HealthHandler{cache: cache, writer: writer}
}

// Health はHTTPメソッドに応じてレスポンスし、キャッシュを防止します。
// GETでは件数と未書き込みバッチ数も返します。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		body := gin.H{"status": "ok"}
		if h.cache != nil {
			body["stocks"] = h.cache.Len()
		}
		if h.writer != nil {
			body["pending_writes"] = h.writer.Pending()
		}
		c.JSON(http.StatusOK, body)
	}
}
