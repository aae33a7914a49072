package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"sheet-grader/api/internal/answers"
)

// settingsStore keeps each chat's sheet layout for the life of the process.
type settingsStore struct {
	m sync.Map // chatID -> answers.Request
}

func (s *settingsStore) Get(chatID int64) answers.Request {
	if v, ok := s.m.Load(chatID); ok {
		return v.(answers.Request)
	}
	return answers.DefaultRequest()
}

func (s *settingsStore) Set(chatID int64, req answers.Request) {
	s.m.Store(chatID, req)
}

// requestFromCaption applies "N" or "N K" from a photo caption on top of base.
func requestFromCaption(caption string, base answers.Request) (answers.Request, error) {
	fields := strings.Fields(caption)
	if len(fields) == 0 {
		return base, nil
	}
	if len(fields) > 2 {
		return base, fmt.Errorf("caption must be \"<questions> [options]\", got %q", caption)
	}

	req := base
	n, err := parseInt(fields[0])
	if err != nil {
		return base, fmt.Errorf("questions: %w", err)
	}
	req.QuestionCount = n
	if len(fields) == 2 {
		k, err := parseInt(fields[1])
		if err != nil {
			return base, fmt.Errorf("options: %w", err)
		}
		req.OptionsPerQuestion = k
	}
	return req, req.Validate()
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return n, nil
}
