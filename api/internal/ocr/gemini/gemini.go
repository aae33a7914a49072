package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"sheet-grader/api/internal/ocr"
)

// Engine talks to Gemini through one client shared by all requests.
type Engine struct {
	Model string

	cl *genai.Client
}

func New(ctx context.Context, apiKey, model string) (*Engine, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("GEMINI_API_KEY is empty")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &Engine{
		Model: strings.TrimSpace(model),
		cl:    cl,
	}, nil
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Close() error { return e.cl.Close() }

// Generate sends the prompt and the image in one call. The SDK itself retries
// a 503 with backoff; those retries run inside ctx's deadline.
func (e *Engine) Generate(ctx context.Context, prompt string, img ocr.Image) (string, error) {
	m := e.cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature: ptrFloat32(0),
	}

	resp, err := m.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: img.MIME, Data: img.Data},
	)
	if err != nil {
		return "", fmt.Errorf("gemini: %w", err)
	}
	return responseText(resp), nil
}

// responseText joins the text parts of the first candidate that has content.
// A reply can arrive split over several parts.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		return b.String()
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
