package session

import (
	"time"
)

// Stage is the coarse conversational phase used to select the reply strategy.
type Stage string

const (
	StageGreeting       Stage = "greeting"
	StageDiscovery      Stage = "discovery"
	StageRecommendation Stage = "recommendation"
	StageRefinement     Stage = "refinement"
)

// Message is one dialogue turn. Messages are append-only; insertion order is
// significant.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Metadata holds derived conversational state.
type Metadata struct {
	Stage           Stage    `json:"stage"`
	ProjectType     string   `json:"project_type,omitempty"`
	PreferredGenres []string `json:"preferred_genres,omitempty"`
	Location        string   `json:"location,omitempty"`
	Language        string   `json:"language,omitempty"`
}

// Session is the per-conversation dialogue state.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Messages  []Message `json:"messages"`
	Metadata  Metadata  `json:"metadata"`
	CreatedAt time.Time `json:"created_at"`
}

// Append adds a message to the history.
func (s *Session) Append(role, content string, at time.Time) {
	s.Messages = append(s.Messages, Message{Role: role, Content: content, Timestamp: at})
}

// Clone returns a deep copy so callers can't mutate shared store state.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Messages != nil {
		cp.Messages = make([]Message, len(s.Messages))
		copy(cp.Messages, s.Messages)
	}
	if s.Metadata.PreferredGenres != nil {
		cp.Metadata.PreferredGenres = make([]string, len(s.Metadata.PreferredGenres))
		copy(cp.Metadata.PreferredGenres, s.Metadata.PreferredGenres)
	}
	return &cp
}
