package engines

import (
	"context"

	"sheet-grader/api/internal/config"
	"sheet-grader/api/internal/ocr"
	"sheet-grader/api/internal/ocr/gemini"
	"sheet-grader/api/internal/ocr/gpt"
)

// FromConfig builds the engines once for the whole process. The returned
// func releases the Gemini client.
func FromConfig(ctx context.Context, cfg *config.Config) (*ocr.Engines, func(), error) {
	g, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, nil, err
	}
	engs := &ocr.Engines{
		Gemini:  g,
		Default: cfg.DefaultEngine,
	}
	if cfg.OpenAIAPIKey != "" {
		o, err := gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel)
		if err != nil {
			_ = g.Close()
			return nil, nil, err
		}
		engs.OpenAI = o
	}
	return engs, func() { _ = g.Close() }, nil
}
