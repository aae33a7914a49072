package grader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"sheet-grader/api/internal/answers"
	"sheet-grader/api/internal/ocr"
	"sheet-grader/api/internal/util"
)

// Input is one answer sheet to read.
type Input struct {
	Image   []byte
	Request answers.Request
	LLMName string
}

type Service struct {
	engs      *ocr.Engines
	log       *slog.Logger
	timeout   time.Duration
	maxPixels int
}

type Options struct {
	// Timeout bounds the model call; zero means no limit.
	Timeout   time.Duration
	MaxPixels int
}

func New(engs *ocr.Engines, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		engs:      engs,
		log:       logger,
		timeout:   opts.Timeout,
		maxPixels: opts.MaxPixels,
	}
}

// Correct reads the marked answers from the sheet image. On success the
// result has exactly in.Request.QuestionCount tokens.
func (s *Service) Correct(ctx context.Context, in Input) ([]answers.Token, error) {
	if len(in.Image) == 0 {
		return nil, answers.ErrMissingImage
	}
	if err := in.Request.Validate(); err != nil {
		return nil, err
	}
	engine, err := s.engs.GetEngine(in.LLMName)
	if err != nil {
		return nil, err
	}

	rid := uuid.New().String()
	start := time.Now()
	log := s.log.With("req_id", rid, "engine", engine.Name(), "model", engine.GetModel())

	log.Info("extract.start",
		"image_bytes", len(in.Image),
		"num_questions", in.Request.QuestionCount,
		"options_per_q", in.Request.OptionsPerQuestion,
	)

	img, err := util.PrepareImage(in.Image, s.maxPixels)
	if err != nil {
		log.Warn("extract.bad_image", "error", err)
		return nil, err
	}

	raw, err := s.generate(ctx, engine, answers.BuildPrompt(in.Request), img)
	if err != nil {
		log.Error("extract.inference_failed", "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		log.Error("extract.empty_response", "elapsed_ms", time.Since(start).Milliseconds())
		return nil, answers.ErrEmptyResponse
	}

	parsed, err := answers.Parse(raw, in.Request.QuestionCount)
	if err != nil {
		log.Error("extract.parse_failed", "error", err, "raw", raw, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	if idx := answers.OutOfRange(parsed.Answers, in.Request.OptionsPerQuestion); len(idx) > 0 {
		log.Warn("extract.out_of_range_letters", "positions", idx)
	}

	log.Info("extract.parsed",
		"strategy", parsed.Strategy,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return parsed.Answers, nil
}

func (s *Service) generate(ctx context.Context, engine ocr.Engine, prompt string, img ocr.Image) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := engine.Generate(ctx, prompt, img)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w (%s): %v", answers.ErrInferenceTimeout, engine.Name(), err)
		}
		return "", err
	}
	return raw, nil
}
