package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

// newPreflightRouter はPreflightハンドラを /generate に登録したテスト用ルーターを生成する。
func newPreflightRouter(allowedOrigins string) *gin.Engine {
	router := gin.New()
	router.OPTIONS("/generate", Preflight(allowedOrigins))
	return router
}

// TestPreflight はPreflightハンドラを検証する。
func TestPreflight(t *testing.T) {
	t.Parallel()

	t.Run("許可されたオリジンに204とCORSヘッダーが返ること", func(t *testing.T) {
		t.Parallel()

		router := newPreflightRouter("http://localhost:3000,https://example.com")

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
			t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "POST")
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, "Content-Type")
		}
		if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
			t.Errorf("Access-Control-Max-Age = %q, want %q", got, "86400")
		}
		if w.Body.Len() != 0 {
			t.Errorf("ボディが空ではない: %q", w.Body.String())
		}
	})

	t.Run("許可リストの2番目のオリジンでも正しくCORSヘッダーが設定されること", func(t *testing.T) {
		t.Parallel()

		router := newPreflightRouter("http://localhost:3000,https://example.com")

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "https://example.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://example.com" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "https://example.com")
		}
	})

	t.Run("許可されていないオリジンではAllow-Originのみ省略されること", func(t *testing.T) {
		t.Parallel()

		router := newPreflightRouter("http://localhost:3000")

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "https://evil.com")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
		if _, ok := w.Header()["Access-Control-Allow-Origin"]; ok {
			t.Errorf("Access-Control-Allow-Originが設定されている: %q", w.Header().Get("Access-Control-Allow-Origin"))
		}
		if got := w.Header().Get("Access-Control-Allow-Methods"); got != "POST" {
			t.Errorf("Access-Control-Allow-Methods = %q, want %q", got, "POST")
		}
		if got := w.Header().Get("Access-Control-Allow-Headers"); got != "Content-Type" {
			t.Errorf("Access-Control-Allow-Headers = %q, want %q", got, "Content-Type")
		}
		if got := w.Header().Get("Access-Control-Max-Age"); got != "86400" {
			t.Errorf("Access-Control-Max-Age = %q, want %q", got, "86400")
		}
	})

	t.Run("Originヘッダーが無い場合CORSヘッダー無しの空の200が返ること", func(t *testing.T) {
		t.Parallel()

		router := newPreflightRouter("http://localhost:3000")

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusOK)
		}
		for _, h := range []string{
			"Access-Control-Allow-Origin",
			"Access-Control-Allow-Methods",
			"Access-Control-Allow-Headers",
			"Access-Control-Max-Age",
		} {
			if got := w.Header().Get(h); got != "" {
				t.Errorf("%s = %q, want empty string", h, got)
			}
		}
		if w.Body.Len() != 0 {
			t.Errorf("ボディが空ではない: %q", w.Body.String())
		}
	})

	t.Run("オリジンは完全一致でのみ許可されること", func(t *testing.T) {
		t.Parallel()

		// カンマ後の空白は許可リストの要素の一部として扱われる
		router := newPreflightRouter("https://a.example.com, https://b.example.com")

		for _, origin := range []string{
			"https://b.example.com",
			"https://a.example.com/",
			"https://A.example.com",
			"https://a.example",
		} {
			req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
			req.Header.Set("Origin", origin)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
				t.Errorf("Origin %q: Access-Control-Allow-Origin = %q, want empty string", origin, got)
			}
		}
	})

	t.Run("プリフライトの後続ハンドラが呼ばれないこと", func(t *testing.T) {
		t.Parallel()

		handlerCalled := false
		router := gin.New()
		router.OPTIONS("/generate", Preflight("http://localhost:3000"), func(c *gin.Context) {
			handlerCalled = true
			c.Status(http.StatusTeapot)
		})

		req := httptest.NewRequest(http.MethodOptions, "/generate", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if handlerCalled {
			t.Error("プリフライト後にハンドラーが呼ばれるべきではない")
		}
		if w.Code != http.StatusNoContent {
			t.Errorf("ステータスコード = %d, want %d", w.Code, http.StatusNoContent)
		}
	})
}

// TestAllowAnyOrigin はAllowAnyOrigin関数を検証する。
func TestAllowAnyOrigin(t *testing.T) {
	t.Parallel()

	router := gin.New()
	router.POST("/generate", func(c *gin.Context) {
		AllowAnyOrigin(c)
		c.JSON(http.StatusOK, gin.H{"generated_text": "ok"})
	})

	req := httptest.NewRequest(http.MethodPost, "/generate", nil)
	req.Header.Set("Origin", "https://not-in-allow-list.example")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "*")
	}
}
