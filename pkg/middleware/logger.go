package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogger はリクエストごとに1行の構造化ログを出力するGinミドルウェアを返す。
// gin.Logger()の代わりに使用する。
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("origin", c.GetHeader("Origin")),
			zap.String("request_id", GetRequestID(c)),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			logger.Error("リクエスト処理完了", fields...)
		case status >= 400:
			logger.Warn("リクエスト処理完了", fields...)
		default:
			logger.Info("リクエスト処理完了", fields...)
		}
	}
}
