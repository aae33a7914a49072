package answers

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the instruction sent next to the sheet image.
func BuildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("This is a photo of a multiple-choice exam answer sheet.\n")
	_, _ = fmt.Fprintf(&b, "Number of questions: %d\n", req.QuestionCount)
	_, _ = fmt.Fprintf(&b, "Options per question: %d (%s)\n", req.OptionsPerQuestion, OptionLetters(req.OptionsPerQuestion))
	_, _ = fmt.Fprintf(&b, "Very important: answer ONLY with a JSON list of %d answers, like: [\"A\", \"B\", %q, \"C\", ...]\n", req.QuestionCount, Blank)
	_, _ = fmt.Fprintf(&b, "Use %q when no option is shaded.\n", Blank)
	b.WriteString("Do not write any explanation or extra text. Only the list.")
	return b.String()
}
