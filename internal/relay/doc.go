// Package relay は推論APIリレーサーバーの内部実装を提供する。
//
// /generate, /answer, /headline, /summarize の各エンドポイントで受け取った
// JSONを上流の推論APIが要求する形に組み替えて1回だけ転送し、上流の応答から
// 必要なフィールドを取り出して呼び出し元に返す。CORSプリフライトと
// バージョン確認エンドポイントにも応答する。
package relay
