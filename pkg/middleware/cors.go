package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// プリフライト応答で常に返すCORSヘッダーの値。
const (
	preflightAllowHeaders = "Content-Type"
	preflightAllowMethods = "POST"
	preflightMaxAge       = "86400"
)

// Preflight はCORSプリフライト（OPTIONS）リクエストに応答するGinハンドラを返す。
// allowedOriginsはカンマ区切りの許可オリジン一覧で、各要素と完全一致した場合のみ
// Access-Control-Allow-Originを設定する。前後の空白は除去しない。
//
// Originヘッダーが無い場合はCORSヘッダー無しの空の200を返す。
// Originヘッダーがある場合は一致の有無に関わらず204を返す。
func Preflight(allowedOrigins string) gin.HandlerFunc {
	origins := strings.Split(allowedOrigins, ",")

	return func(c *gin.Context) {
		if _, ok := c.Request.Header["Origin"]; !ok {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		origin := c.GetHeader("Origin")
		c.Header("Access-Control-Allow-Headers", preflightAllowHeaders)
		c.Header("Access-Control-Allow-Methods", preflightAllowMethods)
		for _, o := range origins {
			if origin == o {
				c.Header("Access-Control-Allow-Origin", origin)
				break
			}
		}
		c.Header("Access-Control-Max-Age", preflightMaxAge)

		c.AbortWithStatus(http.StatusNoContent)
	}
}

// AllowAnyOrigin はレスポンスに "Access-Control-Allow-Origin: *" を設定する。
// プリフライトはオリジンで制限するが、実際のPOST応答は全オリジンに公開される。
func AllowAnyOrigin(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
}
