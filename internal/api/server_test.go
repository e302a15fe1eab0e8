package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/apperr"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/auth"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/sim"
	"github.com/KhamessiTaha/EternaVerseApp-Backend/internal/universe"
)

// fakeStore is an in-memory UniverseStore for handler tests.
type fakeStore struct {
	universes map[uuid.UUID]*universe.Universe
}

func newFakeStore() *fakeStore {
	return &fakeStore{universes: make(map[uuid.UUID]*universe.Universe)}
}

func (s *fakeStore) Get(_ context.Context, id uuid.UUID) (*universe.Universe, error) {
	u, ok := s.universes[id]
	if !ok {
		return nil, apperr.NotFound("universe %s not found", id)
	}
	return u, nil
}

func (s *fakeStore) Save(_ context.Context, u *universe.Universe) error {
	s.universes[u.ID] = u
	return nil
}

func (s *fakeStore) Create(_ context.Context, u *universe.Universe) error {
	s.universes[u.ID] = u
	return nil
}

func (s *fakeStore) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*universe.Universe, error) {
	var out []*universe.Universe
	for _, u := range s.universes {
		if u.OwnerID == ownerID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, id, ownerID uuid.UUID) error {
	u, ok := s.universes[id]
	if !ok || u.OwnerID != ownerID {
		return apperr.NotFound("universe %s not found", id)
	}
	delete(s.universes, id)
	return nil
}

type testEnv struct {
	store   *fakeStore
	tokens  *auth.Tokens
	handler http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	tokens := auth.NewTokens("handler-test-secret")
	runner := sim.NewRunner(store, nil, nil, nil, zerolog.Nop())
	server := NewServer(Config{
		Store:  store,
		Runner: runner,
		Tokens: tokens,
		Log:    zerolog.Nop(),
	})
	return &testEnv{store: store, tokens: tokens, handler: server.Router()}
}

func (e *testEnv) request(t *testing.T, method, path string, body any, userID uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != uuid.Nil {
		token, err := e.tokens.Issue(userID)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/healthz", nil, uuid.Nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody(t, rec)["status"])
}

func TestUniverseRoutesRequireAuth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/universe", nil, uuid.Nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["ok"])
}

func TestCreateUniverse(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()

	rec := env.request(t, http.MethodPost, "/universe", map[string]any{
		"name":       "My Cosmos",
		"seed":       "cosmos-1",
		"difficulty": "intermediate",
	}, owner)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	created := body["universe"].(map[string]any)
	assert.Equal(t, "My Cosmos", created["name"])
	assert.Equal(t, "cosmos-1", created["seed"])
	assert.Equal(t, "intermediate", created["difficulty"])
	assert.Len(t, env.store.universes, 1)
}

func TestCreateUniverseDefaultsToBeginner(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/universe", map[string]any{}, uuid.New())

	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)["universe"].(map[string]any)
	assert.Equal(t, "beginner", created["difficulty"])
}

func TestCreateUniverseInvalidDifficulty(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/universe", map[string]any{
		"difficulty": "nightmare",
	}, uuid.New())

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUniverses(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	mine := universe.New(owner, "mine", "s1", universe.DifficultyBeginner, nil)
	theirs := universe.New(uuid.New(), "theirs", "s2", universe.DifficultyBeginner, nil)
	env.store.universes[mine.ID] = mine
	env.store.universes[theirs.ID] = theirs

	rec := env.request(t, http.MethodGet, "/universe", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	list := decodeBody(t, rec)["universes"].([]any)
	require.Len(t, list, 1)
	assert.Equal(t, "mine", list[0].(map[string]any)["name"])
}

func TestGetUniverse(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "get-me", "s", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodGet, "/universe/"+u.ID.String(), nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Another user sees not-found, not forbidden.
	rec = env.request(t, http.MethodGet, "/universe/"+u.ID.String(), nil, uuid.New())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUniverseBadID(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodGet, "/universe/not-a-uuid", nil, uuid.New())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteUniverse(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "doomed", "s", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodDelete, "/universe/"+u.ID.String(), nil, owner)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.store.universes)
}

func TestSimulate(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "sim", "sim-seed", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodPost, "/universe/"+u.ID.String()+"/simulate",
		map[string]any{"steps": 10}, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decodeBody(t, rec)["report"].(map[string]any)
	assert.Equal(t, 10.0, report["stepsExecuted"])
	assert.Equal(t, 5e8, u.CurrentState.Age)
}

func TestSimulateDefaultsToOneStep(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "one", "one-seed", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodPost, "/universe/"+u.ID.String()+"/simulate", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	report := decodeBody(t, rec)["report"].(map[string]any)
	assert.Equal(t, 1.0, report["stepsExecuted"])
}

func TestSimulateEndedUniverse(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "over", "over-seed", universe.DifficultyBeginner, nil)
	u.Status = universe.StatusEnded
	u.EndCondition = "heat-death"
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodPost, "/universe/"+u.ID.String()+"/simulate", nil, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResolveAnomalyValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "ra", "ra-seed", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u
	path := "/universe/" + u.ID.String() + "/resolve-anomaly"

	rec := env.request(t, http.MethodPost, path, map[string]any{}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, path, map[string]any{"anomalyId": "nope"}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.request(t, http.MethodPost, path, map[string]any{"anomalyId": uuid.NewString()}, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResolveAnomaly(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "ra2", "ra2-seed", universe.DifficultyBeginner, nil)
	a := &universe.Anomaly{ID: uuid.New(), Type: "cosmicVoid", Severity: 3}
	u.Anomalies = []*universe.Anomaly{a}
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodPost, "/universe/"+u.ID.String()+"/resolve-anomaly",
		map[string]any{"anomalyId": a.ID.String()}, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	resolution := decodeBody(t, rec)["resolution"].(map[string]any)
	assert.Equal(t, a.ID.String(), resolution["anomalyId"])
	assert.InDelta(t, 0.045, resolution["stabilityBoost"].(float64), 1e-9)
	assert.True(t, a.Resolved)
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "stats", "stats-seed", universe.DifficultyBeginner, nil)
	u.CurrentState.Age = 1e9
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodGet, "/universe/"+u.ID.String()+"/stats", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	stats := decodeBody(t, rec)["stats"].(map[string]any)
	assert.Equal(t, 1.0, stats["ageGyr"])
}

func TestAnomaliesEndpointSplitsByStatus(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "an", "an-seed", universe.DifficultyBeginner, nil)
	u.Anomalies = []*universe.Anomaly{
		{ID: uuid.New(), Resolved: true},
		{ID: uuid.New()},
		{ID: uuid.New()},
	}
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodGet, "/universe/"+u.ID.String()+"/anomalies", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Len(t, body["active"].([]any), 2)
	assert.Len(t, body["resolved"].([]any), 1)
}

func TestPredictionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "pred", "pred-seed", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodGet, "/universe/"+u.ID.String()+"/predictions", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	predictions := decodeBody(t, rec)["predictions"].(map[string]any)
	assert.Contains(t, predictions, "stability")
	assert.Contains(t, predictions, "endConditions")
}

func TestEndConditionsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "end", "end-seed", universe.DifficultyBeginner, nil)
	u.Status = universe.StatusEnded
	u.EndCondition = "big-crunch"
	env.store.universes[u.ID] = u

	rec := env.request(t, http.MethodGet, "/universe/"+u.ID.String()+"/end-conditions", nil, owner)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decodeBody(t, rec)["status"].(map[string]any)
	assert.Equal(t, true, status["ended"])
	assert.Equal(t, "big-crunch", status["condition"])
}

func TestCleanupAnomaliesValidation(t *testing.T) {
	env := newTestEnv(t)
	owner := uuid.New()
	u := universe.New(owner, "cl", "cl-seed", universe.DifficultyBeginner, nil)
	env.store.universes[u.ID] = u

	keep := -1.0
	rec := env.request(t, http.MethodPost, "/universe/"+u.ID.String()+"/cleanup-anomalies",
		map[string]any{"keepRecentMinutes": keep}, owner)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthEndpointsWithoutUserStore(t *testing.T) {
	env := newTestEnv(t)
	rec := env.request(t, http.MethodPost, "/auth/register",
		map[string]any{"username": "tycho", "password": "supernova1"}, uuid.Nil)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["ok"])
}
