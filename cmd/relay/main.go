// 推論APIリレーサービスのエントリポイント。
// /generate, /answer, /headline, /summarize へのリクエストを上流の推論APIに
// 転送し、CORSプリフライトとバージョン確認にも応答する。
package main

import (
	"errors"
	"io/fs"
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/nao1215/inference-relay/internal/relay"
	"github.com/nao1215/inference-relay/pkg/logger"
)

func main() {
	// ローカル開発用の.envは任意。既存の環境変数は上書きしない
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf(".envの読み込みに失敗: %v", err)
	}

	cfg, err := relay.LoadConfig()
	if err != nil {
		log.Fatalf("設定の初期化に失敗: %v", err)
	}

	l, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer func() { _ = l.Sync() }()

	server := relay.NewServer(cfg, l)

	l.Info("リレーサービスを起動します",
		zap.String("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.Stringer("config", cfg),
	)
	if err := server.Run(); err != nil {
		l.Fatal("リレーサービスの起動に失敗", zap.Error(err))
	}
}
