package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	appI18n "github.com/Dhanushraagav/ai-interview-platform/internal/i18n"
	"github.com/Dhanushraagav/ai-interview-platform/internal/model"
	"github.com/Dhanushraagav/ai-interview-platform/internal/scorer"
	"github.com/Dhanushraagav/ai-interview-platform/internal/session"
)

// Client errors. They indicate API misuse and are surfaced directly to the
// caller; nothing here is transient or retryable.
var (
	// ErrSessionCompleted is returned when an answer arrives for a session
	// already in its terminal state.
	ErrSessionCompleted = errors.New("interview already completed")
	// ErrNotOwner is returned when the caller identity does not match the
	// identity that started the session.
	ErrNotOwner = errors.New("session belongs to another user")
)

// QuestionBank supplies the fixed question sequence per topic. It must be safe
// for concurrent reads.
type QuestionBank interface {
	QuestionsFor(topic string) ([]model.Question, error)
	Topics() []string
}

// Engine orchestrates session creation, question advancement, answer scoring,
// and report assembly. All state lives in the injected store; the engine
// itself is stateless and safe for concurrent use.
type Engine struct {
	bank   QuestionBank
	store  *session.Store
	scorer scorer.Scorer
}

// New wires the engine's collaborators.
func New(bank QuestionBank, store *session.Store, sc scorer.Scorer) *Engine {
	return &Engine{bank: bank, store: store, scorer: sc}
}

// StartResult is the response to a successful Start.
type StartResult struct {
	SessionID      string `json:"session_id"`
	Topic          string `json:"topic"`
	Question       string `json:"question"`
	QuestionNumber int    `json:"question_number"`
	TotalQuestions int    `json:"total_questions"`
}

// SubmitResult is the response to a successful answer submission. NextQuestion
// is empty and TotalScore is set once the session completes.
type SubmitResult struct {
	Score          float64 `json:"score"`
	Feedback       string  `json:"feedback"`
	QuestionNumber int     `json:"question_number"`
	TotalQuestions int     `json:"total_questions"`
	IsComplete     bool    `json:"is_complete"`
	NextQuestion   string  `json:"next_question,omitempty"`
	TotalScore     float64 `json:"total_score,omitempty"`
	Message        string  `json:"message,omitempty"`
}

// StatusResult is a non-mutating progress snapshot.
type StatusResult struct {
	SessionID      string              `json:"session_id"`
	Topic          string              `json:"topic"`
	Status         model.SessionStatus `json:"status"`
	CurrentIndex   int                 `json:"current_question"`
	TotalQuestions int                 `json:"total_questions"`
	AverageScore   float64             `json:"average_score"`
}

// Start validates the topic, builds a new active session at question 1, and
// stores it. The question order is the bank's fixed order for the topic.
func (e *Engine) Start(ctx context.Context, topic, identity string) (*StartResult, error) {
	questions, err := e.bank.QuestionsFor(topic)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	sess := &model.Session{
		ID:           uuid.NewString(),
		Owner:        identity,
		Topic:        topic,
		Questions:    questions,
		CurrentIndex: 1,
		Status:       model.StatusActive,
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := e.store.Create(sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	slog.Info("interview started",
		"session_id", sess.ID, "topic", topic, "user", identity, "questions", len(questions))

	return &StartResult{
		SessionID:      sess.ID,
		Topic:          topic,
		Question:       questions[0].Text,
		QuestionNumber: 1,
		TotalQuestions: len(questions),
	}, nil
}

// Submit scores the answer to the session's current question, appends the
// record, and either advances to the next question or completes the session.
// The read-score-append-advance sequence runs atomically under the session's
// exclusive lock, so two concurrent submissions for one session can never both
// advance the index.
func (e *Engine) Submit(ctx context.Context, sessionID, identity, answer string) (*SubmitResult, error) {
	var result SubmitResult

	_, err := e.store.Update(sessionID, func(sess *model.Session) error {
		if sess.Owner != identity {
			return ErrNotOwner
		}
		if sess.Completed() {
			return ErrSessionCompleted
		}

		q := sess.Questions[sess.CurrentIndex-1]
		scored, err := e.scorer.Evaluate(ctx, q, answer)
		if err != nil {
			return fmt.Errorf("score answer: %w", err)
		}

		sess.Answers = append(sess.Answers, model.Answer{
			QuestionNumber: q.Number,
			QuestionText:   q.Text,
			AnswerText:     answer,
			Score:          scored.Score,
			Feedback:       scored.Feedback,
			AnsweredAt:     time.Now(),
		})

		result = SubmitResult{
			Score:          scored.Score,
			Feedback:       scored.Feedback,
			QuestionNumber: sess.CurrentIndex,
			TotalQuestions: len(sess.Questions),
		}

		if sess.CurrentIndex < len(sess.Questions) {
			sess.CurrentIndex++
			result.QuestionNumber = sess.CurrentIndex
			result.NextQuestion = sess.Questions[sess.CurrentIndex-1].Text
		} else {
			sess.Status = model.StatusCompleted
			result.IsComplete = true
			result.TotalScore = round1(sess.AverageScore())
			result.Message = appI18n.T(ctx, "InterviewComplete")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.IsComplete {
		slog.Info("interview completed",
			"session_id", sessionID, "user", identity, "total_score", result.TotalScore)
	}
	return &result, nil
}

// Report aggregates the session history into a read-only report. It is valid
// for both active (partial) and completed sessions; the total is the
// arithmetic mean of recorded scores on the same 0-10 scale.
func (e *Engine) Report(ctx context.Context, sessionID, identity string) (*model.Report, error) {
	sess, err := e.owned(sessionID, identity)
	if err != nil {
		return nil, err
	}
	return &model.Report{
		SessionID:  sess.ID,
		Topic:      sess.Topic,
		TotalScore: round1(sess.AverageScore()),
		MaxScore:   10.0,
		Completed:  sess.Completed(),
		CreatedAt:  sess.CreatedAt,
		Questions:  sess.Answers,
	}, nil
}

// Status exposes progress for polling without mutating anything.
func (e *Engine) Status(ctx context.Context, sessionID, identity string) (*StatusResult, error) {
	sess, err := e.owned(sessionID, identity)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		SessionID:      sess.ID,
		Topic:          sess.Topic,
		Status:         sess.Status,
		CurrentIndex:   sess.CurrentIndex,
		TotalQuestions: len(sess.Questions),
		AverageScore:   round1(sess.AverageScore()),
	}, nil
}

// Sessions lists the caller's sessions, newest first.
func (e *Engine) Sessions(ctx context.Context, identity string) []*model.Session {
	return e.store.ListByOwner(identity)
}

// Delete removes the caller's session.
func (e *Engine) Delete(ctx context.Context, sessionID, identity string) error {
	if _, err := e.owned(sessionID, identity); err != nil {
		return err
	}
	return e.store.Delete(sessionID)
}

// Topics returns the available interview topics.
func (e *Engine) Topics() []string {
	return e.bank.Topics()
}

func (e *Engine) owned(sessionID, identity string) (*model.Session, error) {
	sess, err := e.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Owner != identity {
		return nil, ErrNotOwner
	}
	return sess, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
