package scorer

import (
	"strings"
	"testing"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

func TestBuildGradingPrompt(t *testing.T) {
	q := model.Question{
		Text:     "Explain the CAP theorem.",
		Keywords: []string{"consistency", "availability", "partition"},
	}

	prompt := buildGradingPrompt(q)
	if !strings.Contains(prompt, q.Text) {
		t.Error("prompt should contain question text")
	}
	if !strings.Contains(prompt, "consistency, availability, partition") {
		t.Error("prompt should list expected concepts")
	}
	if !strings.Contains(prompt, `"score"`) {
		t.Error("prompt should demand a JSON score field")
	}
}

func TestBuildGradingPromptNoKeywords(t *testing.T) {
	prompt := buildGradingPrompt(model.Question{Text: "Open question?"})
	if strings.Contains(prompt, "these concepts") {
		t.Error("prompt should omit the concepts section when the question has none")
	}
}
