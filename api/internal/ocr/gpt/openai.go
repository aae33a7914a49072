package gpt

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"sheet-grader/api/internal/ocr"
	"sheet-grader/api/internal/util"
)

type Engine struct {
	Model string

	client openai.Client
}

// New builds the engine. Extra options are appended after the API key,
// which lets tests point the client at a local server.
func New(key, model string, opts ...option.RequestOption) (*Engine, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("OPENAI_API_KEY not set")
	}
	base := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	return &Engine{
		Model:  strings.TrimSpace(model),
		client: openai.NewClient(append(base, opts...)...),
	}, nil
}

func (e *Engine) Name() string { return "gpt" }

func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Generate(ctx context.Context, prompt string, img ocr.Image) (string, error) {
	dataURL := util.MakeDataURL(img.MIME, base64.StdEncoding.EncodeToString(img.Data))

	resp, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       e.Model,
		Temperature: openai.Float(0),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: dataURL,
				}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
