// Package narrative generates the structured audit score and written
// report from a business profile snapshot, using the Anthropic messages
// API as the text-completion oracle.
package narrative

import (
	"context"
	"encoding/json"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/visibility-audit/internal/model"
)

// ErrGenerationFailed reports that the model produced no parseable
// structured output.
var ErrGenerationFailed = eris.New("narrative: generation failed")

const (
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultMaxTokens = 4096
)

// Generator produces an audit score summary for a profile.
type Generator interface {
	Generate(ctx context.Context, profile *model.ProfileSnapshot, language string) (*model.ScoreSummary, error)
}

// messenger is the slice of the Anthropic SDK the generator needs;
// narrowed for tests.
type messenger interface {
	New(ctx context.Context, params sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

type generator struct {
	messages  messenger
	model     string
	maxTokens int64
}

// Option configures the generator.
type Option func(*generator)

// WithModel overrides the default model.
func WithModel(m string) Option {
	return func(g *generator) {
		if m != "" {
			g.model = m
		}
	}
}

// WithMaxTokens overrides the default completion budget.
func WithMaxTokens(n int64) Option {
	return func(g *generator) {
		if n > 0 {
			g.maxTokens = n
		}
	}
}

// NewGenerator creates a Generator backed by the official SDK.
func NewGenerator(apiKey string, opts ...Option) Generator {
	client := sdk.NewClient(option.WithAPIKey(apiKey))
	g := &generator{
		messages:  &client.Messages,
		model:     defaultModel,
		maxTokens: defaultMaxTokens,
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *generator) Generate(ctx context.Context, profile *model.ProfileSnapshot, language string) (*model.ScoreSummary, error) {
	prompt, err := buildPrompt(profile, language)
	if err != nil {
		return nil, err
	}

	msg, err := g.messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []sdk.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, eris.Wrap(err, "narrative: create message")
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	summary, err := parseSummary(text)
	if err != nil {
		zap.L().Error("narrative output unparseable",
			zap.String("model", string(msg.Model)),
			zap.Int("output_len", len(text)),
			zap.Error(err),
		)
		return nil, err
	}

	zap.L().Info("narrative generated",
		zap.String("model", string(msg.Model)),
		zap.Int("overall_score", summary.OverallScore),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return summary, nil
}

func buildPrompt(profile *model.ProfileSnapshot, language string) (string, error) {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "narrative: marshal profile")
	}

	prompt := "LANGUAGE: " + language + "\n\nPLACE DATA:\n" + string(data) + "\n\n"
	if profile.PhotosCount >= 10 {
		// The directory truncates photo listings at 10; the real count is
		// likely higher, so the model must not criticize photo volume.
		prompt += photoCapNote
	}
	return prompt, nil
}
