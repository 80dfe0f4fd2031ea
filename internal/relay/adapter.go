package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

// 上流応答の展開に失敗したことを表すエラー。
var (
	// ErrEmptyResult は上流が要素数0の配列を返したことを表す。
	ErrEmptyResult = errors.New("上流の応答が空の配列です")
	// ErrUnexpectedShape は上流の応答に期待する文字列フィールドが無いことを表す。
	ErrUnexpectedShape = errors.New("上流の応答が期待する形式ではありません")
)

// inputShape は受信リクエストボディの形を表す。
type inputShape int

const (
	// inputMessage は {"message": string} を受け取り {"inputs": message} を送る。
	inputMessage inputShape = iota
	// inputQuestionContext は {"question", "context"} を受け取り
	// {"inputs": {"question", "context"}} を送る。
	inputQuestionContext
)

// unwrapRule は上流応答から結果オブジェクトを取り出す方法を表す。
type unwrapRule int

const (
	// unwrapFirst は配列の先頭要素を使用する。
	unwrapFirst unwrapRule = iota
	// unwrapDirect は応答オブジェクトをそのまま使用する。
	unwrapDirect
)

// Adapter は公開エンドポイントと上流モデルの間のリクエスト/レスポンス変換を定義する。
type Adapter struct {
	// Name はエンドポイント名（ログ用）。
	Name string
	// Path は公開するルートのパス。
	Path string
	// Model は上流のモデルID。
	Model string
	// Field は上流応答から取り出し、そのままの名前で返すフィールド。
	Field string

	input  inputShape
	unwrap unwrapRule
}

// messageRequest は {"message": string} 形式の受信リクエスト。
type messageRequest struct {
	Message *string `json:"message" binding:"required"`
}

// questionContextRequest は {"question": string, "context": string} 形式の受信リクエスト。
type questionContextRequest struct {
	Question *string `json:"question" binding:"required"`
	Context  *string `json:"context" binding:"required"`
}

// textPayload は {"inputs": string} 形式の上流リクエスト。
type textPayload struct {
	Inputs string `json:"inputs"`
}

// qaInputs は質問応答モデルへの入力。
type qaInputs struct {
	Question string `json:"question"`
	Context  string `json:"context"`
}

// qaPayload は {"inputs": {"question", "context"}} 形式の上流リクエスト。
type qaPayload struct {
	Inputs qaInputs `json:"inputs"`
}

// newAdapters は設定されたモデルIDで4つのエンドポイントのアダプターを生成する。
func newAdapters(models ModelConfig) []Adapter {
	return []Adapter{
		{Name: "generate", Path: "/generate", Model: models.Generate, Field: "generated_text", input: inputMessage, unwrap: unwrapFirst},
		{Name: "answer", Path: "/answer", Model: models.Answer, Field: "answer", input: inputQuestionContext, unwrap: unwrapDirect},
		{Name: "headline", Path: "/headline", Model: models.Headline, Field: "generated_text", input: inputMessage, unwrap: unwrapFirst},
		{Name: "summarize", Path: "/summarize", Model: models.Summarize, Field: "summary_text", input: inputMessage, unwrap: unwrapFirst},
	}
}

// bindPayload は受信リクエストのJSONを検証し、上流に送るペイロードを組み立てる。
// 必須フィールドの欠落や型の不一致はエラーとなる。
func (a Adapter) bindPayload(c *gin.Context) (any, error) {
	switch a.input {
	case inputQuestionContext:
		var req questionContextRequest
		if err := bindStrictJSON(c, &req); err != nil {
			return nil, err
		}
		return qaPayload{Inputs: qaInputs{Question: *req.Question, Context: *req.Context}}, nil
	default:
		var req messageRequest
		if err := bindStrictJSON(c, &req); err != nil {
			return nil, err
		}
		return textPayload{Inputs: *req.Message}, nil
	}
}

// bindStrictJSON はボディ全体を1つのJSON値としてobjにデコードし、bindingタグで検証する。
// ShouldBindJSONと異なり、JSON値の後ろに余分なデータがあればエラーとなる。
func bindStrictJSON(c *gin.Context, obj any) error {
	raw, err := c.GetRawData()
	if err != nil {
		return fmt.Errorf("リクエストボディの読み取りに失敗: %w", err)
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return fmt.Errorf("リクエストボディのデシリアライズに失敗: %w", err)
	}
	return binding.Validator.ValidateStruct(obj)
}

// renderField は {"<Field>": text} をHTMLエスケープせずにJSONへシリアライズする。
func (a Adapter) renderField(text string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]string{a.Field: text}); err != nil {
		return nil, fmt.Errorf("レスポンスのシリアライズに失敗: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// extract は上流の応答からFieldの文字列値を取り出す。
func (a Adapter) extract(raw json.RawMessage) (string, error) {
	var obj map[string]json.RawMessage

	switch a.unwrap {
	case unwrapFirst:
		var seq []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &seq); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnexpectedShape, err)
		}
		if len(seq) == 0 {
			return "", ErrEmptyResult
		}
		obj = seq[0]
	default:
		if err := json.Unmarshal(raw, &obj); err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnexpectedShape, err)
		}
	}

	v, ok := obj[a.Field]
	if !ok {
		return "", fmt.Errorf("%w: %sフィールドがありません", ErrUnexpectedShape, a.Field)
	}
	var text *string
	if err := json.Unmarshal(v, &text); err != nil || text == nil {
		return "", fmt.Errorf("%w: %sフィールドが文字列ではありません", ErrUnexpectedShape, a.Field)
	}
	return *text, nil
}

// upstreamPath は上流APIのベースURLに連結するパスを返す。
func (a Adapter) upstreamPath() string {
	return "/" + a.Model
}
