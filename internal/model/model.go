package model

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthToken is an opaque bearer credential mapped to a user.
type AuthToken struct {
	Token     string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores the authenticated user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Question is one interview question within a topic. Number is the 1-based
// position in the topic's fixed interview order.
type Question struct {
	Number       int      `json:"number" yaml:"-"`
	Text         string   `json:"text" yaml:"text"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	MinAnswerLen int      `json:"min_answer_len,omitempty" yaml:"min_answer_len,omitempty"`
}

// SessionStatus represents the lifecycle state of an interview session.
type SessionStatus string

const (
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
)

// Answer records one scored answer. Appended exactly once per question, in
// question order, and never mutated afterwards.
type Answer struct {
	QuestionNumber int       `json:"question_number"`
	QuestionText   string    `json:"question_text"`
	AnswerText     string    `json:"answer_text"`
	Score          float64   `json:"score"`
	Feedback       string    `json:"feedback"`
	AnsweredAt     time.Time `json:"answered_at"`
}

// Session is one interview for one topic and one caller. The question list is
// fixed at creation; CurrentIndex is 1-based and only ever advances by one.
type Session struct {
	ID           string        `json:"session_id"`
	Owner        string        `json:"owner"`
	Topic        string        `json:"topic"`
	Questions    []Question    `json:"questions"`
	CurrentIndex int           `json:"current_question_index"`
	Answers      []Answer      `json:"answers"`
	Status       SessionStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
	LastActiveAt time.Time     `json:"last_active_at"`
}

// Completed reports whether the session reached its terminal state.
func (s *Session) Completed() bool {
	return s.Status == StatusCompleted
}

// AverageScore returns the running mean of recorded scores on the 0-10 scale,
// or 0 when nothing has been answered yet.
func (s *Session) AverageScore() float64 {
	if len(s.Answers) == 0 {
		return 0
	}
	var sum float64
	for _, a := range s.Answers {
		sum += a.Score
	}
	return sum / float64(len(s.Answers))
}

// Clone returns a deep copy so callers can read a session without holding
// store locks.
func (s *Session) Clone() *Session {
	c := *s
	c.Questions = append([]Question(nil), s.Questions...)
	c.Answers = append([]Answer(nil), s.Answers...)
	return &c
}

// Report is the derived read-only view over a session. It is always recomputed
// from the session, never stored.
type Report struct {
	SessionID  string    `json:"session_id"`
	Topic      string    `json:"topic"`
	TotalScore float64   `json:"total_score"`
	MaxScore   float64   `json:"max_score"`
	Completed  bool      `json:"completed"`
	CreatedAt  time.Time `json:"created_at"`
	Questions  []Answer  `json:"questions"`
}
