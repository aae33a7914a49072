package grader

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"sheet-grader/api/internal/answers"
	"sheet-grader/api/internal/ocr"
)

type fakeEngine struct {
	reply string
	err   error
	block bool

	prompt string
	img    ocr.Image
	calls  int
}

func (f *fakeEngine) Name() string     { return "fake" }
func (f *fakeEngine) GetModel() string { return "fake-1" }

func (f *fakeEngine) Generate(ctx context.Context, prompt string, img ocr.Image) (string, error) {
	f.calls++
	f.prompt = prompt
	f.img = img
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return f.reply, f.err
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 16, 16))))
	return buf.Bytes()
}

func newService(eng ocr.Engine, timeout time.Duration) *Service {
	engs := &ocr.Engines{Gemini: eng, Default: "gemini"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(engs, logger, Options{Timeout: timeout, MaxPixels: 1_000_000})
}

func TestCorrect(t *testing.T) {
	eng := &fakeEngine{reply: "  [\"A\",\"B\",\"فراغ\",\"C\",\"D\"]\n"}
	svc := newService(eng, time.Second)

	img := pngBytes(t)
	got, err := svc.Correct(context.Background(), Input{
		Image:   img,
		Request: answers.Request{QuestionCount: 5, OptionsPerQuestion: 4},
	})
	require.NoError(t, err)
	require.Equal(t, []answers.Token{"A", "B", answers.Blank, "C", "D"}, got)

	require.Equal(t, 1, eng.calls)
	require.Equal(t, answers.BuildPrompt(answers.Request{QuestionCount: 5, OptionsPerQuestion: 4}), eng.prompt)
	require.Equal(t, "image/png", eng.img.MIME)
	require.Equal(t, img, eng.img.Data)
}

func TestCorrectErrors(t *testing.T) {
	valid := answers.Request{QuestionCount: 3, OptionsPerQuestion: 4}

	tests := []struct {
		name  string
		eng   *fakeEngine
		in    func(t *testing.T) Input
		check func(t *testing.T, err error)
		calls int
	}{
		{
			name: "missing image",
			eng:  &fakeEngine{reply: `["A"]`},
			in:   func(t *testing.T) Input { return Input{Request: valid} },
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, answers.ErrMissingImage)
			},
		},
		{
			name: "invalid request",
			eng:  &fakeEngine{reply: `["A"]`},
			in: func(t *testing.T) Input {
				return Input{Image: pngBytes(t), Request: answers.Request{QuestionCount: 0, OptionsPerQuestion: 4}}
			},
			check: func(t *testing.T, err error) {
				var fe *answers.FieldError
				require.True(t, errors.As(err, &fe))
			},
		},
		{
			name: "unknown engine",
			eng:  &fakeEngine{reply: `["A"]`},
			in: func(t *testing.T) Input {
				return Input{Image: pngBytes(t), Request: valid, LLMName: "llama"}
			},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ocr.ErrUnknownEngine)
			},
		},
		{
			name: "undecodable image",
			eng:  &fakeEngine{reply: `["A"]`},
			in: func(t *testing.T) Input {
				return Input{Image: []byte("not a picture"), Request: valid}
			},
			check: func(t *testing.T, err error) {
				require.ErrorContains(t, err, "decode image")
			},
		},
		{
			name: "upstream error is passed through",
			eng:  &fakeEngine{err: errors.New("gemini: quota exceeded")},
			in:   func(t *testing.T) Input { return Input{Image: pngBytes(t), Request: valid} },
			check: func(t *testing.T, err error) {
				require.EqualError(t, err, "gemini: quota exceeded")
			},
			calls: 1,
		},
		{
			name: "empty response",
			eng:  &fakeEngine{reply: " \n "},
			in:   func(t *testing.T) Input { return Input{Image: pngBytes(t), Request: valid} },
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, answers.ErrEmptyResponse)
			},
			calls: 1,
		},
		{
			name: "unexpected format",
			eng:  &fakeEngine{reply: "I cannot determine the answers."},
			in:   func(t *testing.T) Input { return Input{Image: pngBytes(t), Request: valid} },
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, answers.ErrUnexpectedFormat)
			},
			calls: 1,
		},
		{
			name: "json of wrong length",
			eng:  &fakeEngine{reply: `["A","B"]`},
			in:   func(t *testing.T) Input { return Input{Image: pngBytes(t), Request: valid} },
			check: func(t *testing.T, err error) {
				var mismatch *answers.CountMismatchError
				require.True(t, errors.As(err, &mismatch))
				require.Equal(t, 2, mismatch.Got)
				require.Equal(t, 3, mismatch.Want)
			},
			calls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newService(tt.eng, time.Second)
			got, err := svc.Correct(context.Background(), tt.in(t))
			require.Error(t, err)
			require.Nil(t, got)
			tt.check(t, err)
			require.Equal(t, tt.calls, tt.eng.calls)
		})
	}
}

func TestCorrectTimeout(t *testing.T) {
	eng := &fakeEngine{block: true}
	svc := newService(eng, 20*time.Millisecond)

	_, err := svc.Correct(context.Background(), Input{
		Image:   pngBytes(t),
		Request: answers.Request{QuestionCount: 2, OptionsPerQuestion: 5},
	})
	require.ErrorIs(t, err, answers.ErrInferenceTimeout)
	require.Equal(t, 1, eng.calls)
}

func TestCorrectAcceptsOutOfRangeLetters(t *testing.T) {
	eng := &fakeEngine{reply: `["E","A"]`}
	svc := newService(eng, 0)

	got, err := svc.Correct(context.Background(), Input{
		Image:   pngBytes(t),
		Request: answers.Request{QuestionCount: 2, OptionsPerQuestion: 4},
	})
	require.NoError(t, err)
	require.Equal(t, []answers.Token{"E", "A"}, got)
}
