// Package router wires HTTP routes to their handlers.
package router

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	stockhandler "stock_watch/internal/feature/stocks/transport/handler"
	"stock_watch/internal/platform/http/handler"
)

// Options toggles optional middleware.
type Options struct {
	CORS bool
}

func NewRouter(health *handler.HealthHandler, stocks *stockhandler.StockHandler, opts Options) *gin.Engine {
	r := gin.Default()

	// ブラウザのダッシュボードから購読する場合のみ
	if opts.CORS {
		r.Use(cors.Default())
	}

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	s := r.Group("/stocks")
	{
		s.GET("", stocks.List)
		s.GET("/favorites", stocks.Favorites)
		// 更新通知（Server-Sent Events）
		s.GET("/events", stocks.Events)
		s.GET("/:symbol", stocks.Get)
		s.PUT("/:symbol/favorite", stocks.AddFavorite)
		s.DELETE("/:symbol/favorite", stocks.RemoveFavorite)
		// 表示中の銘柄のプロフィール取得
		s.POST("/profiles", stocks.RequestProfiles)
	}

	return r
}
