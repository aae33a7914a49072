package answers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	reQuoted = regexp.MustCompile(`"([A-E])"|` + Blank)
	reBare   = regexp.MustCompile(`[A-E]|` + Blank)
)

// Parsed is a model response turned into answers.
type Parsed struct {
	Answers  []Token
	Strategy string
}

type strategy struct {
	name string
	// exact strategies only succeed when they yield exactly n tokens
	exact bool
	// run returns ok=false to hand over to the next strategy; an error ends the chain
	run func(raw string) (tokens []Token, ok bool, err error)
}

// Strategies run in order; the first one that succeeds wins.
var strategies = []strategy{
	{name: "json", run: parseJSONArray},
	{name: "quoted", exact: true, run: scanQuoted},
	{name: "bare", exact: true, run: scanBare},
}

// Parse recovers exactly n answers from raw model output.
//
// The whole text is first decoded as a JSON array. If that fails the text is
// scanned for quoted letters, then for bare letters; a scan is only accepted
// when it finds exactly n tokens. Text that is valid JSON but not a list is
// not scanned. A JSON array of the wrong length is a *CountMismatchError,
// anything else unusable is ErrUnexpectedFormat.
func Parse(raw string, n int) (Parsed, error) {
	for _, s := range strategies {
		tokens, ok, err := s.run(raw)
		if err != nil {
			return Parsed{}, err
		}
		if !ok {
			continue
		}
		if s.exact && len(tokens) != n {
			continue
		}
		if len(tokens) != n {
			return Parsed{}, &CountMismatchError{Got: len(tokens), Want: n}
		}
		return Parsed{Answers: tokens, Strategy: s.name}, nil
	}
	return Parsed{}, ErrUnexpectedFormat
}

// parseJSONArray accepts any JSON array. Elements are not checked: strings are
// taken as is, other values keep their JSON text.
func parseJSONArray(raw string) ([]Token, bool, error) {
	if !json.Valid([]byte(raw)) {
		return nil, false, nil
	}
	var items []json.RawMessage
	// "null" decodes into a nil slice without error
	if err := json.Unmarshal([]byte(raw), &items); err != nil || items == nil {
		return nil, false, fmt.Errorf("%w: json value is not a list", ErrUnexpectedFormat)
	}
	out := make([]Token, 0, len(items))
	for _, it := range items {
		it = bytes.TrimSpace(it)
		if len(it) > 0 && it[0] == '"' {
			var s string
			if err := json.Unmarshal(it, &s); err == nil {
				out = append(out, s)
				continue
			}
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, it); err != nil {
			out = append(out, string(it))
			continue
		}
		out = append(out, compact.String())
	}
	return out, true, nil
}

func scanQuoted(raw string) ([]Token, bool, error) {
	text := strings.ReplaceAll(raw, `"`+Blank+`"`, Blank)
	matches := reQuoted.FindAllStringSubmatch(text, -1)
	out := make([]Token, 0, len(matches))
	for _, m := range matches {
		if m[1] != "" {
			out = append(out, m[1])
		} else {
			out = append(out, Blank)
		}
	}
	return out, true, nil
}

func scanBare(raw string) ([]Token, bool, error) {
	return reBare.FindAllString(raw, -1), true, nil
}
