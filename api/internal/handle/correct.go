package handle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"sheet-grader/api/internal/answers"
	"sheet-grader/api/internal/grader"
	"sheet-grader/api/internal/util"
)

// correctJSON is the alternative to a multipart upload: the image travels base64 encoded.
type correctJSON struct {
	ImageB64     string `json:"image_b64"`
	NumQuestions *int   `json:"num_questions,omitempty"`
	OptionsPerQ  *int   `json:"options_per_q,omitempty"`
	LLMName      string `json:"llm_name"`
}

// Correct serves POST /api/correct.
func (h *Handle) Correct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	var (
		in  grader.Input
		err error
	)
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		in, err = readJSON(r)
	} else {
		in, err = readMultipart(r)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}

	out, err := h.svc.Correct(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, correctResponse{Success: true, Answers: out})
}

func readMultipart(r *http.Request) (grader.Input, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return grader.Input{}, err
		}
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		return grader.Input{}, answers.ErrMissingImage
	}
	defer file.Close()

	img, err := io.ReadAll(file)
	if err != nil {
		return grader.Input{}, fmt.Errorf("read image: %w", err)
	}

	req := answers.DefaultRequest()
	if req.QuestionCount, err = util.AtoiDefault(r.FormValue("num_questions"), answers.DefaultQuestionCount); err != nil {
		return grader.Input{}, &answers.FieldError{Field: "num_questions", Reason: "not an integer"}
	}
	if req.OptionsPerQuestion, err = util.AtoiDefault(r.FormValue("options_per_q"), answers.DefaultOptionsPerQuestion); err != nil {
		return grader.Input{}, &answers.FieldError{Field: "options_per_q", Reason: "not an integer"}
	}

	return grader.Input{
		Image:   img,
		Request: req,
		LLMName: r.FormValue("llm_name"),
	}, nil
}

func readJSON(r *http.Request) (grader.Input, error) {
	var body correctJSON
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return grader.Input{}, err
		}
		return grader.Input{}, &answers.FieldError{Field: "body", Reason: "bad json: " + err.Error()}
	}
	if body.ImageB64 == "" {
		return grader.Input{}, answers.ErrMissingImage
	}
	img, err := util.DecodeBase64MaybeDataURL(body.ImageB64)
	if err != nil {
		return grader.Input{}, &answers.FieldError{Field: "image_b64", Reason: "bad base64"}
	}

	req := answers.DefaultRequest()
	if body.NumQuestions != nil {
		req.QuestionCount = *body.NumQuestions
	}
	if body.OptionsPerQ != nil {
		req.OptionsPerQuestion = *body.OptionsPerQ
	}
	return grader.Input{Image: img, Request: req, LLMName: body.LLMName}, nil
}
