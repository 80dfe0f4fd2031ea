// Package httpclient は上流の推論APIを呼び出すHTTPクライアントを提供する。
//
// 1リクエストにつき1回だけJSONボディをPOSTし、Bearerトークンを付与して
// レスポンスをデシリアライズする。リトライは行わない。
package httpclient
