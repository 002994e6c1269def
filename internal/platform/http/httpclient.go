// Package http provides the outbound HTTP client used for market data APIs.
package http

import (
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultUserAgent is sent on every outbound request unless the caller set one.
const DefaultUserAgent = "stock-watch/1.0"

// NewHTTPClient は外部API呼び出し用に設定されたHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTP_PROXYなど）が設定されている場合に使用
//   - Dialer.Timeout: TCP接続タイムアウト
//   - MaxIdleConnsPerHost: 同一ホストへの価格取得を並べても接続を使い回せるよう多めに確保
//   - Client.Timeout: リクエスト全体のタイムアウト（呼び出し元から渡される）
//
// http.DefaultClientにはタイムアウトがないため使用しないこと。
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{next: t, userAgent: DefaultUserAgent},
	}
}

// loggingTransport はUser-Agentを付与し、リクエストの所要時間をdebugログに出力します。
// URLにはAPIキーが含まれるため、ログにはホストとパスのみを出します。
type loggingTransport struct {
	next      http.RoundTripper
	userAgent string
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("User-Agent", t.userAgent)
	}

	start := time.Now()
	res, err := t.next.RoundTrip(req)
	elapsed := time.Since(start)
	if err != nil {
		slog.Warn("outbound request failed", "host", req.URL.Host, "path", req.URL.Path, "elapsed", elapsed, "error", err)
		return nil, err
	}
	slog.Debug("outbound request", "host", req.URL.Host, "path", req.URL.Path, "status", res.StatusCode, "elapsed", elapsed)
	return res, nil
}
