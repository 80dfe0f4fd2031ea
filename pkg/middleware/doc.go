// Package middleware はGinベースのHTTP APIで使用する共通ミドルウェアを提供する。
//
// CORSプリフライトへの応答、リクエストIDの付与、構造化リクエストログ、
// パニックリカバリなど、リレーサーバーの全ルートで共通して使用する
// ミドルウェアを含む。
package middleware
