package bank

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
)

// ErrUnknownTopic is returned when a topic is not registered in the bank.
var ErrUnknownTopic = errors.New("unknown topic")

//go:embed topics.yaml
var defaultTopics []byte

type bankFile struct {
	Topics []struct {
		Name      string           `yaml:"name"`
		Questions []model.Question `yaml:"questions"`
	} `yaml:"topics"`
}

// Bank maps topic names to their fixed, ordered question lists. It is
// read-only after loading and safe for unsynchronized concurrent reads.
type Bank struct {
	order  []string
	topics map[string][]model.Question
}

// New returns an empty bank.
func New() *Bank {
	return &Bank{topics: make(map[string][]model.Question)}
}

// Default returns a bank loaded from the embedded topics file.
func Default() (*Bank, error) {
	b := New()
	if err := b.Load(defaultTopics); err != nil {
		return nil, fmt.Errorf("load embedded topics: %w", err)
	}
	return b, nil
}

// LoadFile reads a YAML topics file and merges it into the bank.
func (b *Bank) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := b.Load(data); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	slog.Info("loaded question bank file", "path", path)
	return nil
}

// Load parses YAML topic definitions and merges them into the bank. A topic
// that already exists is replaced but keeps its position in the topic order.
// Question numbers are assigned from file order and keywords are normalized
// to lowercase.
func (b *Bank) Load(data []byte) error {
	var f bankFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("unmarshal topics: %w", err)
	}

	for _, t := range f.Topics {
		name := strings.TrimSpace(t.Name)
		if name == "" {
			return fmt.Errorf("topic with empty name")
		}
		if len(t.Questions) == 0 {
			return fmt.Errorf("topic %q has no questions", name)
		}

		questions := make([]model.Question, len(t.Questions))
		for i, q := range t.Questions {
			if strings.TrimSpace(q.Text) == "" {
				return fmt.Errorf("topic %q: question %d has empty text", name, i+1)
			}
			q.Number = i + 1
			keywords := make([]string, len(q.Keywords))
			for j, kw := range q.Keywords {
				keywords[j] = strings.ToLower(strings.TrimSpace(kw))
			}
			q.Keywords = keywords
			questions[i] = q
		}

		if _, exists := b.topics[name]; !exists {
			b.order = append(b.order, name)
		}
		b.topics[name] = questions
	}

	return nil
}

// Topics returns the registered topic names in registration order.
func (b *Bank) Topics() []string {
	return append([]string(nil), b.order...)
}

// QuestionsFor returns the interview question sequence for a topic. The order
// is fixed at load time, so every session on the same topic sees the same
// questions in the same order.
func (b *Bank) QuestionsFor(topic string) ([]model.Question, error) {
	questions, ok := b.topics[topic]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTopic, topic)
	}
	return append([]model.Question(nil), questions...), nil
}
