package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/inference-relay/pkg/httpclient"
	"github.com/nao1215/inference-relay/pkg/middleware"
)

// ルートパスとエラー応答の本文。
const (
	rootGreeting   = "Hello from Workers!"
	badRequestBody = "Bad request"
	badGatewayBody = "Bad gateway"
	// jsonContentType はc.JSONと同じContent-Type。
	jsonContentType = "application/json; charset=utf-8"
)

// upstreamClient は上流APIへのJSON POSTを行うクライアント。
type upstreamClient interface {
	PostJSON(ctx context.Context, path string, body any, result any) error
}

// Server はリレーサービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// cfg は起動時に読み込んだ設定。
	cfg Config
	// upstream は上流推論APIへの通信クライアント。
	upstream upstreamClient
	// adapters はエンドポイントごとの変換定義。
	adapters []Adapter
	// logger は構造化ロガー。
	logger *zap.Logger
}

// NewServer は新しいリレーサーバーを生成する。
func NewServer(cfg Config, logger *zap.Logger) *Server {
	client := httpclient.New(cfg.UpstreamBaseURL,
		httpclient.WithBearerToken(cfg.HFToken),
		httpclient.WithTimeout(cfg.UpstreamTimeout),
	)
	return newServer(cfg, client, logger)
}

// newServer は上流クライアントを指定してサーバーを生成する。
func newServer(cfg Config, upstream upstreamClient, logger *zap.Logger) *Server {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Recovery(logger))

	s := &Server{
		router:   router,
		cfg:      cfg,
		upstream: upstream,
		adapters: newAdapters(cfg.Models),
		logger:   logger,
	}
	s.setupRoutes()

	return s
}

// Handler はサーバーのhttp.Handlerを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.cfg.Port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	s.router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, rootGreeting)
	})

	preflight := middleware.Preflight(s.cfg.CORSOrigin)
	for _, a := range s.adapters {
		s.router.OPTIONS(a.Path, preflight)
		s.router.POST(a.Path, s.handleAdapter(a))
	}

	s.router.GET("/worker-version", func(c *gin.Context) {
		c.String(http.StatusOK, s.cfg.Version)
	})

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "relay"})
	})
}

// handleAdapter はアダプターに従ってリクエストを上流へ転送するハンドラを返す。
// 上流の失敗はプロセスを落とさず502に変換し、上流の本文は返さない。
func (s *Server) handleAdapter(a Adapter) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := a.bindPayload(c)
		if err != nil {
			c.String(http.StatusBadRequest, badRequestBody)
			return
		}

		ctx := httpclient.WithRequestID(c.Request.Context(), middleware.GetRequestID(c))

		var raw json.RawMessage
		if err := s.upstream.PostJSON(ctx, a.upstreamPath(), payload, &raw); err != nil {
			s.logUpstreamError(c, a, err)
			c.String(http.StatusBadGateway, badGatewayBody)
			return
		}

		text, err := a.extract(raw)
		if err != nil {
			s.logUpstreamError(c, a, err)
			c.String(http.StatusBadGateway, badGatewayBody)
			return
		}

		body, err := a.renderField(text)
		if err != nil {
			s.logUpstreamError(c, a, err)
			c.String(http.StatusBadGateway, badGatewayBody)
			return
		}

		middleware.AllowAnyOrigin(c)
		c.Data(http.StatusOK, jsonContentType, body)
	}
}

// logUpstreamError は上流呼び出しの失敗をログに出力する。
// トークンと上流のレスポンスボディは出力しない。
func (s *Server) logUpstreamError(c *gin.Context, a Adapter, err error) {
	fields := []zap.Field{
		zap.String("adapter", a.Name),
		zap.String("model", a.Model),
		zap.String("request_id", middleware.GetRequestID(c)),
	}

	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		fields = append(fields, zap.Int("upstream_status", statusErr.StatusCode))
	} else {
		fields = append(fields, zap.Error(err))
	}
	s.logger.Error("上流APIの呼び出しに失敗しました", fields...)
}
