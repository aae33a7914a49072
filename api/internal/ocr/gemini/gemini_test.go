package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/require"

	"sheet-grader/api/internal/answers"
)

func TestResponseText(t *testing.T) {
	require.Equal(t, "", responseText(nil))
	require.Equal(t, "", responseText(&genai.GenerateContentResponse{}))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Blob{MIMEType: "image/png"},
				genai.Text(`["A","B"]`),
			}}},
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(`["C","D"]`)}}},
		},
	}
	require.Equal(t, `["A","B"]`, responseText(resp))
}

func TestResponseTextSplitParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{
				genai.Text(`["A","B",`),
				genai.Text(`"C"]`),
			}}},
		},
	}

	raw := responseText(resp)
	require.Equal(t, `["A","B","C"]`, raw)

	parsed, err := answers.Parse(raw, 3)
	require.NoError(t, err)
	require.Equal(t, []answers.Token{"A", "B", "C"}, parsed.Answers)
	require.Equal(t, "json", parsed.Strategy)
}
