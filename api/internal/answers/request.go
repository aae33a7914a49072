package answers

import "fmt"

// Blank is the token the model returns for a question with no marked option.
const Blank Token = "فراغ"

const (
	DefaultQuestionCount      = 10
	DefaultOptionsPerQuestion = 4

	MaxQuestions = 200
)

// Token is one answer: a letter A..E or Blank.
type Token = string

// Request describes the sheet being read.
type Request struct {
	QuestionCount      int `json:"num_questions"`
	OptionsPerQuestion int `json:"options_per_q"`
}

// DefaultRequest is a ten-question, four-option sheet.
func DefaultRequest() Request {
	return Request{
		QuestionCount:      DefaultQuestionCount,
		OptionsPerQuestion: DefaultOptionsPerQuestion,
	}
}

// Validate returns a *FieldError when a count is outside what the reader supports.
func (r Request) Validate() error {
	if r.QuestionCount < 1 || r.QuestionCount > MaxQuestions {
		return &FieldError{
			Field:  "num_questions",
			Reason: fmt.Sprintf("must be between 1 and %d, got %d", MaxQuestions, r.QuestionCount),
		}
	}
	if r.OptionsPerQuestion != 4 && r.OptionsPerQuestion != 5 {
		return &FieldError{
			Field:  "options_per_q",
			Reason: fmt.Sprintf("must be 4 or 5, got %d", r.OptionsPerQuestion),
		}
	}
	return nil
}

// OptionLetters lists the option labels shown to the model.
func OptionLetters(optionsPerQuestion int) string {
	if optionsPerQuestion == 4 {
		return "A, B, C, D"
	}
	return "A, B, C, D, E"
}

// OutOfRange returns the positions (0-based) of letters past the last
// option of the sheet, e.g. "E" on a four-option sheet.
func OutOfRange(tokens []Token, optionsPerQuestion int) []int {
	var out []int
	last := byte('A' + optionsPerQuestion - 1)
	for i, t := range tokens {
		if len(t) == 1 && t[0] >= 'A' && t[0] <= 'E' && t[0] > last {
			out = append(out, i)
		}
	}
	return out
}
