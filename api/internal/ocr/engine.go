package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

var ErrUnknownEngine = errors.New("unknown llm_name")

// Image is an encoded picture ready to be sent to a model.
type Image struct {
	Data []byte
	MIME string
}

// Engine is a multimodal model that answers a text prompt about one image.
type Engine interface {
	Name() string
	GetModel() string
	Generate(ctx context.Context, prompt string, img Image) (string, error)
}

type Engines struct {
	Gemini Engine
	OpenAI Engine

	Default string
}

func (e *Engines) GetEngine(llmName string) (Engine, error) {
	name := strings.ToLower(strings.TrimSpace(llmName))
	if name == "" {
		name = e.Default
	}

	var eng Engine
	switch name {
	case "gemini":
		eng = e.Gemini
	case "gpt", "openai":
		eng = e.OpenAI
	default:
		return nil, fmt.Errorf("%w %q; use 'gemini' or 'gpt'", ErrUnknownEngine, llmName)
	}
	if eng == nil {
		return nil, fmt.Errorf("%w %q: engine is not configured", ErrUnknownEngine, name)
	}
	return eng, nil
}

// Manager remembers the engine each chat picked.
type Manager struct {
	engs *Engines
	m    sync.Map // chatID -> engine name
}

func NewManager(engs *Engines) *Manager {
	return &Manager{engs: engs}
}

// Get returns the engine name for the chat, "" meaning the default.
func (m *Manager) Get(chatID int64) string {
	if v, ok := m.m.Load(chatID); ok {
		return v.(string)
	}
	return ""
}

func (m *Manager) Set(chatID int64, llmName string) (Engine, error) {
	eng, err := m.engs.GetEngine(llmName)
	if err != nil {
		return nil, err
	}
	m.m.Store(chatID, strings.ToLower(strings.TrimSpace(llmName)))
	return eng, nil
}
