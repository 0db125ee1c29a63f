package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kalambet/scena/internal/assistant"
	"github.com/kalambet/scena/internal/dialogue"
	"github.com/kalambet/scena/internal/intent"
	"github.com/kalambet/scena/internal/matching"
	"github.com/kalambet/scena/internal/session"
	"github.com/kalambet/scena/internal/stage"
	"github.com/kalambet/scena/internal/talent"
)

const testToken = "test-token"

// fakeTalentStore is an in-memory talent.Store.
type fakeTalentStore struct {
	mu   sync.Mutex
	rows [][]byte
}

func (f *fakeTalentStore) UpsertTalent(id string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, payload)
	return nil
}

func (f *fakeTalentStore) ListTalents() ([][]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeTalentStore) CountTalents() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows), nil
}

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()

	catalog := talent.NewCatalog(&fakeTalentStore{})
	if _, err := catalog.Add(talent.Profile{
		ID:                "t-1",
		Name:              "Priya Sharma",
		Age:               27,
		ExperienceYears:   5,
		Skills:            []string{"Dancing"},
		Specialties:       []string{"Romance"},
		Languages:         []string{"Tamil"},
		AvailabilityScore: 9.0,
		BudgetRange:       "1-3 lakhs per project",
	}); err != nil {
		t.Fatal(err)
	}

	extractor := intent.NewRuleExtractor(intent.DefaultRuleset())
	engine := matching.NewEngine()
	asst := assistant.New(
		session.NewMemoryStore(time.Hour),
		stage.NewController(stage.DefaultTokens()),
		extractor,
		engine,
		catalog,
		dialogue.NewTemplateResponder(),
	)

	return NewHandler(Deps{
		Assistant: asst,
		Catalog:   catalog,
		Engine:    engine,
		Extractor: extractor,
		Token:     testToken,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if authed {
		req.Header.Set("Authorization", "Bearer "+testToken)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth_NoAuthRequired(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "GET", "/health", nil, false)
	if rec.Code != http.StatusOK {
		t.Errorf("GET /health = %d, want 200", rec.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "GET", "/talents", nil, false)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated request = %d, want 401", rec.Code)
	}

	var body struct {
		Error struct {
			Type string `json:"type"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	if body.Error.Type != "authentication_error" {
		t.Errorf("error type = %q, want authentication_error", body.Error.Type)
	}
}

func TestAuth_WrongToken(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest("GET", "/talents", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", rec.Code)
	}
}

func TestCreateSession(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/session", map[string]string{"user_id": "u-1"}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /session = %d, want 201", rec.Code)
	}

	var resp map[string]string
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp["session_id"] == "" {
		t.Error("response has no session_id")
	}
}

func TestCreateSession_EmptyBody(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "POST", "/session", nil, true)
	if rec.Code != http.StatusCreated {
		t.Errorf("POST /session with empty body = %d, want 201 (body is optional)", rec.Code)
	}
}

func TestMessageFlow(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/session", nil, true)
	var created map[string]string
	json.NewDecoder(rec.Body).Decode(&created)
	id := created["session_id"]

	rec = doRequest(t, h, "POST", "/session/"+id+"/message",
		map[string]string{"text": "We are casting a dancer for a romantic web series, Tamil speaker needed"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST message = %d, body %s", rec.Code, rec.Body.String())
	}

	var turn struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
		Stage     string `json:"stage"`
		Matches   []struct {
			Talent struct {
				Name string `json:"name"`
			} `json:"talent"`
			Score int `json:"match_score"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&turn); err != nil {
		t.Fatalf("decoding turn: %v", err)
	}
	if turn.Stage != "discovery" {
		t.Errorf("stage = %q, want discovery", turn.Stage)
	}
	if len(turn.Matches) != 1 || turn.Matches[0].Talent.Name != "Priya Sharma" {
		t.Errorf("matches = %+v, want Priya Sharma", turn.Matches)
	}

	// The session now holds both turn messages.
	rec = doRequest(t, h, "GET", "/session/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /session/%s = %d", id, rec.Code)
	}
	var sess struct {
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
	}
	json.NewDecoder(rec.Body).Decode(&sess)
	if len(sess.Messages) != 2 {
		t.Errorf("session has %d messages, want 2", len(sess.Messages))
	}
}

func TestMessage_EmptyText(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "POST", "/session/s-1/message", map[string]string{"text": "  "}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty text = %d, want 400", rec.Code)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "GET", "/session/nope", nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing session = %d, want 404", rec.Code)
	}
}

func TestDeleteSession(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/session", nil, true)
	var created map[string]string
	json.NewDecoder(rec.Body).Decode(&created)
	id := created["session_id"]

	rec = doRequest(t, h, "DELETE", "/session/"+id, nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("DELETE /session/%s = %d", id, rec.Code)
	}
	rec = doRequest(t, h, "GET", "/session/"+id, nil, true)
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET deleted session = %d, want 404", rec.Code)
	}
}

func TestMatch_FromRoleDescription(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/match",
		map[string]string{"role_description": "a romantic lead who can dance, Tamil speaking"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /match = %d, body %s", rec.Code, rec.Body.String())
	}

	var report struct {
		TotalCandidates  int `json:"total_candidates"`
		QualifiedMatches int `json:"qualified_matches"`
		TopMatches       []struct {
			Talent struct {
				Name string `json:"name"`
			} `json:"talent"`
		} `json:"top_matches"`
	}
	json.NewDecoder(rec.Body).Decode(&report)
	if report.TotalCandidates != 1 || report.QualifiedMatches != 1 {
		t.Errorf("counts = %d/%d, want 1/1", report.TotalCandidates, report.QualifiedMatches)
	}
	if len(report.TopMatches) != 1 || report.TopMatches[0].Talent.Name != "Priya Sharma" {
		t.Errorf("top matches = %+v, want Priya Sharma", report.TopMatches)
	}
}

func TestMatch_FromStructuredRequirements(t *testing.T) {
	h := newTestHandler(t)

	body := map[string]any{
		"requirements": map[string]any{
			"genre":     "Romance",
			"languages": []string{"Tamil"},
		},
	}
	rec := doRequest(t, h, "POST", "/match", body, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST /match = %d", rec.Code)
	}
}

func TestMatch_RequiresInput(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "POST", "/match", map[string]string{}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /match without input = %d, want 400", rec.Code)
	}
}

func TestTalents_ListAndAdd(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "GET", "/talents", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /talents = %d", rec.Code)
	}
	var profiles []talent.Profile
	json.NewDecoder(rec.Body).Decode(&profiles)
	if len(profiles) != 1 {
		t.Fatalf("listed %d profiles, want 1", len(profiles))
	}

	rec = doRequest(t, h, "POST", "/talents",
		map[string]any{"name": "Dev Banerjee", "age": 35}, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST /talents = %d, body %s", rec.Code, rec.Body.String())
	}
	var stored talent.Profile
	json.NewDecoder(rec.Body).Decode(&stored)
	if stored.ID == "" || stored.Name != "Dev Banerjee" {
		t.Errorf("stored = %+v, want an id-assigned Dev Banerjee", stored)
	}

	rec = doRequest(t, h, "GET", "/talents", nil, true)
	json.NewDecoder(rec.Body).Decode(&profiles)
	if len(profiles) != 2 {
		t.Errorf("listed %d profiles after add, want 2", len(profiles))
	}
}

func TestTalents_AddRequiresName(t *testing.T) {
	h := newTestHandler(t)
	rec := doRequest(t, h, "POST", "/talents", map[string]any{"age": 30}, true)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("POST /talents without name = %d, want 400", rec.Code)
	}
}

func TestStats(t *testing.T) {
	h := newTestHandler(t)

	doRequest(t, h, "POST", "/session", nil, true)
	rec := doRequest(t, h, "GET", "/stats", nil, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /stats = %d", rec.Code)
	}

	var st struct {
		ActiveSessions int    `json:"active_sessions"`
		StorageMode    string `json:"storage_mode"`
	}
	json.NewDecoder(rec.Body).Decode(&st)
	if st.ActiveSessions != 1 {
		t.Errorf("active_sessions = %d, want 1", st.ActiveSessions)
	}
	if st.StorageMode != "memory" {
		t.Errorf("storage_mode = %q, want memory for the bare volatile store", st.StorageMode)
	}
}

func TestMessage_ReplyMentionsNoMatchesWhenCatalogMisses(t *testing.T) {
	h := newTestHandler(t)

	rec := doRequest(t, h, "POST", "/session/s-x/message",
		map[string]string{"text": "need a horse riding stunt veteran, Punjabi speaker, low budget, aged 50-60"}, true)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST message = %d", rec.Code)
	}
	var turn struct {
		Reply   string          `json:"reply"`
		Matches json.RawMessage `json:"matches"`
	}
	json.NewDecoder(rec.Body).Decode(&turn)
	if !strings.Contains(turn.Reply, "No strong matches") {
		t.Errorf("reply = %q, want the no-matches notice", turn.Reply)
	}
}
