// Package logger はアプリケーション全体で使用する構造化ロガーを提供する。
//
// zapのプロダクション設定をベースに、環境変数で指定されたログレベルを
// 反映したロガーを生成する。
package logger
