// Cadence - Personalized Track Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/cadence/internal/database"
	"github.com/tomtom215/cadence/internal/recommend"
	"github.com/tomtom215/cadence/internal/recommend/snapshot"
)

// ===================================================================================================
// Fakes
// ===================================================================================================

type fakeRanker struct {
	resp        *recommend.Response
	err         error
	calls       int
	got         recommend.Request
	invalidated []recommend.UserID
}

func (f *fakeRanker) Rank(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	if f.resp == nil {
		return &recommend.Response{Metadata: recommend.ResponseMetadata{UserID: req.UserID, K: 10}}, nil
	}
	return f.resp, nil
}

func (f *fakeRanker) InvalidateUser(user recommend.UserID) {
	f.invalidated = append(f.invalidated, user)
}

func (f *fakeRanker) Stats() recommend.Stats {
	return recommend.Stats{Requests: int64(f.calls), CacheHits: 2, CacheEntries: 3}
}

type fakeCatalog struct {
	pingErr   error
	artists   []database.Artist
	searchErr error
	gotFilter database.ArtistFilter
	recordErr error
	recorded  []recommend.Interaction
	users     map[string]*database.User
	userErr   error
}

func (f *fakeCatalog) UserByName(_ context.Context, username string) (*database.User, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[username]
	if !ok {
		return nil, fmt.Errorf("%w: %q", recommend.ErrUserNotFound, username)
	}
	return u, nil
}

func (f *fakeCatalog) Ping(context.Context) error { return f.pingErr }

func (f *fakeCatalog) SearchArtists(_ context.Context, filter database.ArtistFilter) ([]database.Artist, error) {
	f.gotFilter = filter
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	if f.artists == nil {
		return []database.Artist{}, nil
	}
	return f.artists, nil
}

func (f *fakeCatalog) RecordInteraction(_ context.Context, in recommend.Interaction) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, in)
	return nil
}

type fakeRefits struct {
	triggerErr error
	triggers   int
	status     snapshot.Status
}

func (f *fakeRefits) Trigger() error {
	if f.triggerErr != nil {
		return f.triggerErr
	}
	f.triggers++
	return nil
}

func (f *fakeRefits) Status() snapshot.Status { return f.status }

type fakeBreaker string

func (f fakeBreaker) State() string { return string(f) }

type testEnv struct {
	ranker  *fakeRanker
	catalog *fakeCatalog
	refits  *fakeRefits
	router  http.Handler
}

func newTestEnv(t *testing.T, hcfg HandlerConfig, rcfg *RouterConfig) *testEnv {
	t.Helper()
	env := &testEnv{
		ranker:  &fakeRanker{},
		catalog: &fakeCatalog{},
		refits:  &fakeRefits{},
	}
	h, err := NewHandler(env.ranker, env.catalog, env.refits, fakeBreaker("closed"), hcfg)
	if err != nil {
		t.Fatalf("NewHandler() error = %v", err)
	}
	if rcfg == nil {
		rcfg = DefaultRouterConfig()
		rcfg.RateLimitDisabled = true
	}
	env.router = NewRouter(h, rcfg)
	return env
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status   string          `json:"status"`
	Data     json.RawMessage `json:"data"`
	Metadata struct {
		RequestID string           `json:"request_id"`
		Cached    bool             `json:"cached"`
		Ranking   *RankingMetadata `json:"ranking"`
	} `json:"metadata"`
	Error *APIError `json:"error"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body %q: %v", rec.Body.String(), err)
	}
	return env
}

func wantError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	env := decode(t, rec)
	if env.Status != "error" || env.Error == nil || env.Error.Code != code {
		t.Errorf("error body = %s, want code %s", rec.Body.String(), code)
	}
}

// ===================================================================================================
// Recommendations
// ===================================================================================================

func TestGetRecommendations_Success(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)
	fitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env.ranker.resp = &recommend.Response{
		Items: []recommend.ScoredCandidate{
			{
				Item: recommend.Item{
					ID: 7, Title: "Svefn-g-englar", Attribution: "Sigur Rós - Ágætis byrjun",
					Tags: []string{"post-rock"}, Duration: 10*time.Minute + 4*time.Second,
				},
				Score:      0.91,
				Provenance: recommend.ProvenanceScored,
			},
			{
				Item:       recommend.Item{ID: 3, Title: "Untagged", Duration: 90 * time.Second},
				Provenance: recommend.ProvenanceFallback,
			},
		},
		Metadata: recommend.ResponseMetadata{
			UserID: 42, K: 5, ModelVersion: 3, FittedAt: fitted,
			ScoredCount: 1, FallbackCount: 1, TotalCandidates: 12,
		},
	}

	rec := env.do(http.MethodGet, "/api/v1/recommendations?user_id=42&k=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if env.ranker.got.UserID != 42 || env.ranker.got.K != 5 {
		t.Errorf("Rank request = %+v", env.ranker.got)
	}
	if env.ranker.got.RequestID == "" || env.ranker.got.RequestID != rec.Header().Get("X-Request-ID") {
		t.Errorf("request id not propagated: %q vs header %q", env.ranker.got.RequestID, rec.Header().Get("X-Request-ID"))
	}

	body := decode(t, rec)
	var tracks []TrackView
	if err := json.Unmarshal(body.Data, &tracks); err != nil {
		t.Fatalf("data is not a track list: %v", err)
	}
	if len(tracks) != 2 || tracks[0].ID != 7 || tracks[1].ID != 3 {
		t.Fatalf("tracks = %+v, want order [7 3]", tracks)
	}
	if tracks[0].Duration != 604 {
		t.Errorf("duration = %v, want 604 seconds", tracks[0].Duration)
	}
	if tracks[0].Provenance != "scored" || tracks[1].Provenance != "fallback" {
		t.Errorf("provenance = %s, %s", tracks[0].Provenance, tracks[1].Provenance)
	}
	if !strings.Contains(string(body.Data), `"tags":[]`) {
		t.Errorf("nil tags should render as []: %s", body.Data)
	}

	md := body.Metadata.Ranking
	if md == nil || md.ModelVersion != 3 || md.TotalCandidates != 12 || md.FittedAt == nil || !md.FittedAt.Equal(fitted) {
		t.Errorf("ranking metadata = %+v", md)
	}
}

func TestGetRecommendations_EmptyResult(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)

	rec := env.do(http.MethodGet, "/api/v1/recommendations?user_id=9", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := string(decode(t, rec).Data); got != "[]" {
		t.Errorf("data = %s, want []", got)
	}
}

func TestGetRecommendations_RejectsBeforeRanking(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing user", ""},
		{"malformed user", "?user_id=abc"},
		{"zero user", "?user_id=0"},
		{"negative user", "?user_id=-4"},
		{"malformed k", "?user_id=1&k=ten"},
		{"negative k", "?user_id=1&k=-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{}, nil)
			rec := env.do(http.MethodGet, "/api/v1/recommendations"+tt.query, "")
			wantError(t, rec, http.StatusBadRequest, ErrCodeValidation)
			if env.ranker.calls != 0 {
				t.Errorf("ranker called %d times", env.ranker.calls)
			}
		})
	}
}

func TestGetRecommendations_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		status     int
		code       string
		retryAfter bool
	}{
		{"k above max", fmt.Errorf("%w: k must be between 0 and 50, got 80", recommend.ErrValidation), http.StatusBadRequest, ErrCodeValidation, false},
		{"unknown user", fmt.Errorf("preference tags: %w", recommend.ErrUserNotFound), http.StatusNotFound, ErrCodeUserNotFound, false},
		{"store down", fmt.Errorf("eligible items: %w: %w", recommend.ErrStoreUnavailable, errors.New("io")), http.StatusServiceUnavailable, ErrCodeStoreUnavailable, true},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{}, nil)
			env.ranker.err = tt.err

			rec := env.do(http.MethodGet, "/api/v1/recommendations?user_id=1&k=80", "")
			wantError(t, rec, tt.status, tt.code)
			if got := rec.Header().Get("Retry-After") != ""; got != tt.retryAfter {
				t.Errorf("Retry-After present = %v, want %v", got, tt.retryAfter)
			}
		})
	}
}

func TestGetRecommendations_StoreErrorDetailsNotLeaked(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)
	env.ranker.err = fmt.Errorf("%w: dial tcp 10.0.0.5:5432", recommend.ErrStoreUnavailable)

	rec := env.do(http.MethodGet, "/api/v1/recommendations?user_id=1", "")
	if strings.Contains(rec.Body.String(), "10.0.0.5") {
		t.Errorf("internal error detail leaked: %s", rec.Body.String())
	}
}

// ===================================================================================================
// Model
// ===================================================================================================

func TestTriggerRefit(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{}, nil)
		rec := env.do(http.MethodPost, "/api/v1/model/refit", "")
		if rec.Code != http.StatusAccepted || env.refits.triggers != 1 {
			t.Errorf("status = %d, triggers = %d", rec.Code, env.refits.triggers)
		}
	})

	t.Run("already running", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{}, nil)
		env.refits.triggerErr = snapshot.ErrRefitInProgress
		wantError(t, env.do(http.MethodPost, "/api/v1/model/refit", ""), http.StatusConflict, ErrCodeRefitInProgress)
	})

	t.Run("throttled", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{RefitsPerMinute: 1, RefitBurst: 1}, nil)
		if rec := env.do(http.MethodPost, "/api/v1/model/refit", ""); rec.Code != http.StatusAccepted {
			t.Fatalf("first refit status = %d", rec.Code)
		}
		rec := env.do(http.MethodPost, "/api/v1/model/refit", "")
		wantError(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
		if rec.Header().Get("Retry-After") == "" {
			t.Error("429 without Retry-After")
		}
		if env.refits.triggers != 1 {
			t.Errorf("triggers = %d, want 1", env.refits.triggers)
		}
	})

	t.Run("wrong method", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{}, nil)
		wantError(t, env.do(http.MethodGet, "/api/v1/model/refit", ""), http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
	})
}

func TestGetModelStatus(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)
	env.refits.status = snapshot.Status{
		LastResult: "ok",
		Model:      &snapshot.ModelStatus{Version: 4, Users: 10, Items: 200},
	}

	rec := env.do(http.MethodGet, "/api/v1/model/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var view struct {
		Running bool                  `json:"running"`
		Model   *snapshot.ModelStatus `json:"model"`
		Breaker string                `json:"breaker_state"`
		Ranking recommend.Stats       `json:"ranking"`
	}
	if err := json.Unmarshal(decode(t, rec).Data, &view); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if view.Model == nil || view.Model.Version != 4 || view.Breaker != "closed" {
		t.Errorf("status view = %+v", view)
	}
	if view.Ranking.CacheHits != 2 || view.Ranking.CacheEntries != 3 {
		t.Errorf("ranking stats = %+v, want cache hits 2 and 3 entries", view.Ranking)
	}
}

// ===================================================================================================
// Catalog
// ===================================================================================================

func TestSearchArtists(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)
	env.catalog.artists = []database.Artist{{ID: 1, Name: "Múm", Genres: []string{"electronica"}}}

	rec := env.do(http.MethodGet, "/api/v1/artists?name=m%C3%BAm&genre=electro&limit=5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f := env.catalog.gotFilter; f.Name != "múm" || f.Genre != "electro" || f.Limit != 5 {
		t.Errorf("filter = %+v", f)
	}

	wantError(t, env.do(http.MethodGet, "/api/v1/artists?name=a%00b", ""), http.StatusBadRequest, ErrCodeValidation)
	wantError(t, env.do(http.MethodGet, "/api/v1/artists?limit=999", ""), http.StatusBadRequest, ErrCodeValidation)
}

func TestGetUser(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)
	env.catalog.users = map[string]*database.User{
		"ada": {ID: 9, Username: "ada", PasswordHash: "$2a$10$secret"},
	}

	rec := env.do(http.MethodGet, "/api/v1/users/ada", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Errorf("password hash leaked: %s", rec.Body.String())
	}
	var view UserView
	if err := json.Unmarshal(decode(t, rec).Data, &view); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if view.ID != 9 || view.Username != "ada" {
		t.Errorf("user view = %+v", view)
	}

	wantError(t, env.do(http.MethodGet, "/api/v1/users/grace", ""), http.StatusNotFound, ErrCodeUserNotFound)
	wantError(t, env.do(http.MethodGet, "/api/v1/users/a%01b", ""), http.StatusBadRequest, ErrCodeValidation)
	wantError(t, env.do(http.MethodGet, "/api/v1/users/"+strings.Repeat("x", 65), ""), http.StatusBadRequest, ErrCodeValidation)

	env.catalog.userErr = &database.StoreError{Op: "user by name", Err: errors.New("locked")}
	wantError(t, env.do(http.MethodGet, "/api/v1/users/ada", ""), http.StatusServiceUnavailable, ErrCodeStoreUnavailable)
}

func TestRecordInteraction(t *testing.T) {
	t.Run("created and cache invalidated", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{}, nil)
		rec := env.do(http.MethodPost, "/api/v1/interactions",
			`{"user_id": 5, "track_id": 11, "rating": 4, "played_at": "2026-02-01T10:00:00Z"}`)
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if len(env.catalog.recorded) != 1 {
			t.Fatalf("recorded = %v", env.catalog.recorded)
		}
		in := env.catalog.recorded[0]
		if in.UserID != 5 || in.ItemID != 11 || in.Strength != 4 || in.Timestamp.IsZero() {
			t.Errorf("interaction = %+v", in)
		}
		if len(env.ranker.invalidated) != 1 || env.ranker.invalidated[0] != 5 {
			t.Errorf("invalidated = %v", env.ranker.invalidated)
		}
	})

	t.Run("plain listen", func(t *testing.T) {
		env := newTestEnv(t, HandlerConfig{}, nil)
		if rec := env.do(http.MethodPost, "/api/v1/interactions", `{"user_id": 5, "track_id": 11}`); rec.Code != http.StatusCreated {
			t.Fatalf("status = %d", rec.Code)
		}
		if env.catalog.recorded[0].Strength != 0 {
			t.Errorf("strength = %v, want 0 (stored as NULL)", env.catalog.recorded[0].Strength)
		}
	})

	tests := []struct {
		name      string
		body      string
		recordErr error
		status    int
		code      string
	}{
		{"malformed body", `{"user_id":`, nil, http.StatusBadRequest, ErrCodeValidation},
		{"unknown field", `{"user_id": 1, "track_id": 2, "admin": true}`, nil, http.StatusBadRequest, ErrCodeValidation},
		{"rating out of range", `{"user_id": 1, "track_id": 2, "rating": 9}`, nil, http.StatusBadRequest, ErrCodeValidation},
		{"missing track", `{"user_id": 1}`, nil, http.StatusBadRequest, ErrCodeValidation},
		{"unknown user", `{"user_id": 1, "track_id": 2}`, fmt.Errorf("record interaction: %w", recommend.ErrUserNotFound), http.StatusNotFound, ErrCodeUserNotFound},
		{"unknown track", `{"user_id": 1, "track_id": 2}`, database.ErrTrackNotFound, http.StatusNotFound, ErrCodeTrackNotFound},
		{"store down", `{"user_id": 1, "track_id": 2}`, &database.StoreError{Op: "record interaction", Err: errors.New("disk full")}, http.StatusServiceUnavailable, ErrCodeStoreUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, HandlerConfig{}, nil)
			env.catalog.recordErr = tt.recordErr
			wantError(t, env.do(http.MethodPost, "/api/v1/interactions", tt.body), tt.status, tt.code)
			if len(env.ranker.invalidated) != 0 {
				t.Error("cache invalidated for a failed write")
			}
		})
	}
}

// ===================================================================================================
// Health
// ===================================================================================================

func TestHealth(t *testing.T) {
	env := newTestEnv(t, HandlerConfig{}, nil)

	if rec := env.do(http.MethodGet, "/health/live", ""); rec.Code != http.StatusOK {
		t.Errorf("live status = %d", rec.Code)
	}
	if rec := env.do(http.MethodGet, "/health/ready", ""); rec.Code != http.StatusOK {
		t.Errorf("ready status = %d", rec.Code)
	}

	env.catalog.pingErr = errors.New("database is locked")
	rec := env.do(http.MethodGet, "/health/ready", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("ready status = %d, want 503", rec.Code)
	}
	if decode(t, rec).Status != "not_ready" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestNewHandler_RequiresCollaborators(t *testing.T) {
	if _, err := NewHandler(nil, &fakeCatalog{}, &fakeRefits{}, nil, HandlerConfig{}); err == nil {
		t.Error("NewHandler(nil ranker) should fail")
	}
}
