package relay

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// defaultVersion はバージョン変数が未設定の場合の値。
const defaultVersion = "dev"

// Config はリレーサーバーの設定。起動時に1度だけ生成し、以後は読み取り専用で扱う。
type Config struct {
	// Port はサーバーのリッスンポート。
	Port string `env:"PORT" envDefault:"8080"`
	// CORSOrigin はプリフライトで許可するオリジンのカンマ区切り一覧。
	CORSOrigin string `env:"CORS_ORIGIN,required,notEmpty"`
	// HFToken は上流APIに付与するBearerトークン。
	HFToken string `env:"HF_TOKEN,required,notEmpty"`
	// Version は /worker-version で返すバージョン文字列。
	// 未設定の場合はWorkersRSVersion、それも無ければ "dev" を使用する。
	Version string `env:"WORKER_VERSION"`
	// WorkersRSVersion は旧来の変数名で指定されたバージョン文字列。
	WorkersRSVersion string `env:"WORKERS_RS_VERSION"`
	// UpstreamBaseURL は上流APIのベースURL。モデルIDをパスとして連結する。
	UpstreamBaseURL string `env:"UPSTREAM_BASE_URL" envDefault:"https://api-inference.huggingface.co/models"`
	// UpstreamTimeout は上流API呼び出し全体のタイムアウト。
	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
	// Models は各エンドポイントが使用するモデルID。
	Models ModelConfig
	// LogLevel はログレベル。
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// ModelConfig はエンドポイントごとの上流モデルID。
type ModelConfig struct {
	Generate  string `env:"GENERATE_MODEL" envDefault:"EleutherAI/gpt-j-6B"`
	Answer    string `env:"ANSWER_MODEL" envDefault:"deepset/roberta-base-squad2"`
	Headline  string `env:"HEADLINE_MODEL" envDefault:"Michau/t5-base-en-generate-headline"`
	Summarize string `env:"SUMMARIZE_MODEL" envDefault:"facebook/bart-large-cnn"`
}

// LoadConfig は環境変数から設定を読み込む。
// CORS_ORIGIN と HF_TOKEN が未設定の場合はエラーを返す。
func LoadConfig() (Config, error) {
	return loadConfig(env.Options{})
}

// loadConfig は指定されたオプションで設定を読み込む。
// テストではopts.Environmentで環境変数を差し替える。
func loadConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("設定の読み込みに失敗: %w", err)
	}
	if cfg.Version == "" {
		cfg.Version = cfg.WorkersRSVersion
	}
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.UpstreamTimeout < 0 {
		return Config{}, fmt.Errorf("UPSTREAM_TIMEOUTが負の値です: %s", cfg.UpstreamTimeout)
	}
	return cfg, nil
}

// String はトークンを伏せた設定の文字列表現を返す。
func (c Config) String() string {
	return fmt.Sprintf("Config{Port:%s CORSOrigin:%s HFToken:[REDACTED] Version:%s UpstreamBaseURL:%s UpstreamTimeout:%s Models:%+v LogLevel:%s}",
		c.Port, c.CORSOrigin, c.Version, c.UpstreamBaseURL, c.UpstreamTimeout, c.Models, c.LogLevel)
}
