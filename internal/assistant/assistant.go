package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kalambet/scena/internal/dialogue"
	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/session"
	"github.com/kalambet/scena/internal/stage"
	"github.com/kalambet/scena/internal/talent"
)

// ErrEmptyMessage is returned when a turn arrives with no text.
var ErrEmptyMessage = errors.New("message text is required")

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Catalog is the candidate source the assistant ranks against.
// Implemented by talent.Catalog.
type Catalog interface {
	List() ([]talent.Profile, error)
}

// TurnResult is the outcome of one handled message.
type TurnResult struct {
	SessionID string           `json:"session_id"`
	Reply     string           `json:"reply"`
	Stage     session.Stage    `json:"stage"`
	Matches   []matching.Match `json:"matches,omitempty"`
}

// Assistant orchestrates one conversational turn: load-or-create the
// session, resolve the stage, extract requirements, rank the catalog,
// compose a reply, and persist the updated session. Every step degrades
// gracefully — a turn never fails once the message text is present.
type Assistant struct {
	sessions  session.Store
	stages    *stage.Controller
	extractor intent.Extractor
	engine    *matching.Engine
	catalog   Catalog
	responder dialogue.Responder
	clock     Clock
	logger    *slog.Logger
}

// New wires an Assistant from its collaborators.
func New(
	sessions session.Store,
	stages *stage.Controller,
	extractor intent.Extractor,
	engine *matching.Engine,
	catalog Catalog,
	responder dialogue.Responder,
) *Assistant {
	return &Assistant{
		sessions:  sessions,
		stages:    stages,
		extractor: extractor,
		engine:    engine,
		catalog:   catalog,
		responder: responder,
		clock:     realClock{},
		logger:    slog.Default(),
	}
}

// CreateSession starts a fresh session for userID and persists it.
func (a *Assistant) CreateSession(ctx context.Context, userID string) (*session.Session, error) {
	s := &session.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		Metadata:  session.Metadata{Stage: session.StageGreeting},
		CreatedAt: a.clock.Now().UTC(),
	}
	if err := a.sessions.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("persisting new session: %w", err)
	}
	return s, nil
}

// GetSession returns the stored session, or session.ErrNotFound.
func (a *Assistant) GetSession(ctx context.Context, id string) (*session.Session, error) {
	return a.sessions.Get(ctx, id)
}

// DeleteSession removes a session from all tiers.
func (a *Assistant) DeleteSession(ctx context.Context, id string) error {
	return a.sessions.Delete(ctx, id)
}

// Stats exposes the session store's statistics.
func (a *Assistant) Stats(ctx context.Context) (session.Stats, error) {
	return a.sessions.Stats(ctx)
}

// HandleMessage runs the full turn pipeline. An unknown session id is not an
// error: a fresh session is created under that id so the conversational flow
// stays resilient.
func (a *Assistant) HandleMessage(ctx context.Context, sessionID, userID, text string) (TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return TurnResult{}, ErrEmptyMessage
	}

	s, err := a.sessions.Get(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		s = &session.Session{
			ID:        sessionID,
			UserID:    userID,
			Metadata:  session.Metadata{Stage: session.StageGreeting},
			CreatedAt: a.clock.Now().UTC(),
		}
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
	} else if err != nil {
		return TurnResult{}, fmt.Errorf("loading session: %w", err)
	}

	// Stage is resolved against prior history, before this message lands.
	st := a.stages.Apply(s, text)

	turn := dialogue.Turn{
		Stage:       st,
		Message:     text,
		ProjectType: s.Metadata.ProjectType,
	}

	// Greetings don't concern a casting need; everything else is worth
	// extracting and ranking.
	var matches []matching.Match
	if st != session.StageGreeting {
		req := a.extractor.Extract(ctx, text)
		turn.Requirements = &req

		candidates, err := a.catalog.List()
		if err != nil {
			// Stale or empty suggestions beat a failed turn.
			a.logger.Warn("catalog unavailable, replying without matches", "error", err)
		} else {
			report := a.engine.MatchTalents(ctx, req, candidates)
			turn.Report = &report
			matches = report.TopMatches
		}
	}

	reply, err := a.responder.Reply(ctx, turn)
	if err != nil {
		a.logger.Warn("responder failed, using fallback reply", "error", err)
		reply = "I hit a snag composing that reply — could you rephrase the brief?"
	}

	now := a.clock.Now().UTC()
	s.Append("user", text, now)
	s.Append("assistant", reply, now)

	if err := a.sessions.Put(ctx, s); err != nil {
		return TurnResult{}, fmt.Errorf("persisting session: %w", err)
	}

	return TurnResult{
		SessionID: s.ID,
		Reply:     reply,
		Stage:     st,
		Matches:   matches,
	}, nil
}
