package generation

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Slide は生成されたプレゼンテーション1枚分の内容。
type Slide struct {
	Title            string `json:"title"`
	Content          string `json:"content"`
	ImageDescription string `json:"image_description,omitempty"`
	Keywords         string `json:"keywords,omitempty"`
}

// Deck は生成されたスライド一式。
type Deck struct {
	Slides []Slide `json:"slides"`
}

// Generator はテキスト生成バックエンド。*Client が満たす。
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}

// モデルが指示を無視してMarkdownコードブロックで包んだ場合の除去用
var (
	fenceOpenRe  = regexp.MustCompile("^```json\\s*")
	fenceCloseRe = regexp.MustCompile("\\s*```$")
)

// Service はプロンプト組み立てから応答の構造化までの生成フローを実装する。
type Service struct {
	generator Generator
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewService はServiceを生成する。
func NewService(generator Generator, logger *slog.Logger) *Service {
	return &Service{
		generator: generator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger,
	}
}

// GenerateManual は投資マニュアル（ピッチデッキ）を生成する。
// 応答が有効なJSONでない場合は失敗にせず、生テキストを1枚の
// スライドに包んで返す。呼び出し側は常にDeckを受け取れる。
func (s *Service) GenerateManual(ctx context.Context, topic, industry, targetAudience string) (*Deck, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: manualPrompt(topic, industry, targetAudience)},
	}

	raw, err := s.generator.Generate(ctx, messages)
	if err != nil {
		return nil, err
	}

	cleaned := stripFences(raw)

	var deck Deck
	if err := json.Unmarshal([]byte(cleaned), &deck); err != nil {
		s.logger.Warn("generation response is not valid JSON", slog.Int("length", len(cleaned)))
		deck = Deck{Slides: []Slide{
			{Title: "Error Parsing AI Response", Content: cleaned},
		}}
	}

	for i := range deck.Slides {
		deck.Slides[i].Title = s.sanitize(deck.Slides[i].Title)
		deck.Slides[i].Content = s.sanitize(deck.Slides[i].Content)
	}
	return &deck, nil
}

// sanitize はモデル出力からHTMLタグを除去する。生成結果は
// フロントエンドでそのまま描画されるため、タグを残さない。
func (s *Service) sanitize(text string) string {
	return s.sanitizer.Sanitize(text)
}

func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpenRe.ReplaceAllString(cleaned, "")
	cleaned = fenceCloseRe.ReplaceAllString(cleaned, "")
	return cleaned
}
