//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httpapi "github.com/careerlens/assessment-server/internal/http"
	"github.com/careerlens/assessment-server/internal/questionbank"
	"github.com/careerlens/assessment-server/internal/repository"
	"github.com/careerlens/assessment-server/internal/service"
	"github.com/careerlens/assessment-server/tests/e2e/mocks"
)

const (
	testSecret  = "e2e-secret"
	guestHeader = "X-Guest-Session"
)

type env struct {
	router *gin.Engine
	kv     *mocks.InMemoryKV
	db     *sql.DB
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.Migrate(context.Background(), db))

	_, err = db.Exec(`
		INSERT INTO catalog_items (id, kind, name, description) VALUES
			(1, 'major', 'Mechanical Engineering', 'Machines and systems'),
			(2, 'career', 'Electrician', 'Installs and repairs wiring'),
			(3, 'career', 'Park Ranger', 'Outdoor conservation work');
	`)
	require.NoError(t, err)

	kv := mocks.NewInMemoryKV()
	logger := zap.NewNop()

	resultRepo := repository.NewAssessmentResultRepository(db)
	bookmarkRepo := repository.NewBookmarkRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	ephemeralResults := repository.NewEphemeralResultStore(kv)
	localBookmarks := repository.NewLocalBookmarkStore(kv)

	submissions := service.NewSubmissionService(resultRepo, ephemeralResults, 24*time.Hour, logger)
	dashboards := service.NewDashboardService(resultRepo, bookmarkRepo, localBookmarks, profileRepo, catalogRepo, 30, logger)
	sessions := service.NewSessionManager(submissions, questionbank.Questions(), 300, logger)
	t.Cleanup(sessions.Close)

	handlers := httpapi.NewHandlers(sessions, submissions, dashboards, logger)
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Handlers:       handlers,
		JWTSecret:      testSecret,
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         logger,
	})
	return &env{router: router, kv: kv, db: db}
}

func (e *env) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func signToken(t *testing.T, subject string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func authHeader(t *testing.T, subject string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + signToken(t, subject)}
}

// runGuestAssessment drives a full guest test run: strong agreement on the
// Realistic questions, mild on everything else.
func runGuestAssessment(t *testing.T, e *env) (string, service.SessionView) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/v1/sessions", nil, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created service.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	token := created.Token

	rec = e.do(t, http.MethodPost, "/api/v1/sessions/"+token+"/start", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	for _, q := range questionbank.Questions() {
		value := 2
		if q.Category == questionbank.Realistic {
			value = 5
		}
		rec = e.do(t, http.MethodPost, "/api/v1/sessions/"+token+"/answers",
			gin.H{"question_id": q.ID, "value": value}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec = e.do(t, http.MethodPost, "/api/v1/sessions/"+token+"/navigate",
		gin.H{"action": "jump", "index": 29}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/sessions/"+token+"/submit", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var view service.SessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	return token, view
}

func TestE2E_GuestCompletesThenSaves(t *testing.T) {
	e := setupEnv(t)

	token, view := runGuestAssessment(t, e)

	assert.Equal(t, "completed", view.State)
	assert.False(t, view.SubmitFailed)
	require.NotNil(t, view.Outcome)
	assert.Equal(t, questionbank.Realistic, view.Outcome.Code.Dominant)
	assert.Equal(t, 25, view.Outcome.Vector[questionbank.Realistic])
	require.NotNil(t, view.Ref)
	assert.False(t, view.Ref.Durable)

	// The result landed in the guest slot, not the database.
	assert.True(t, e.kv.HasKey("guest:result:"+token))
	var count int
	require.NoError(t, e.db.QueryRow(`SELECT COUNT(*) FROM assessment_results`).Scan(&count))
	assert.Zero(t, count)

	// Saving requires a signed-in user.
	rec := e.do(t, http.MethodPost, "/api/v1/results/save", gin.H{"token": token}, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/api/v1/results/save", gin.H{"token": token}, authHeader(t, "user-7"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var ref service.PersistedResultRef
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ref))
	assert.True(t, ref.Durable)

	// Promotion clears the slot; a second save finds nothing.
	assert.False(t, e.kv.HasKey("guest:result:"+token))
	rec = e.do(t, http.MethodPost, "/api/v1/results/save", gin.H{"token": token}, authHeader(t, "user-7"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// The durable copy carries the same vector and code.
	rec = e.do(t, http.MethodGet, "/api/v1/results/"+ref.ID, nil, authHeader(t, "user-7"))
	require.Equal(t, http.StatusOK, rec.Code)
	var result service.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, view.Outcome.Vector, result.Vector)
	assert.Equal(t, view.Outcome.Code, result.Code)

	// Another user cannot read it.
	rec = e.do(t, http.MethodGet, "/api/v1/results/"+ref.ID, nil, authHeader(t, "intruder"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestE2E_DashboardMergesBothBookmarkStores(t *testing.T) {
	e := setupEnv(t)

	user := authHeader(t, "user-7")
	guest := map[string]string{guestHeader: "guest-device-1"}

	// Durable bookmarks for the signed-in user.
	for _, b := range []gin.H{
		{"item_type": "major", "item_id": 1},
		{"item_type": "career", "item_id": 2},
	} {
		rec := e.do(t, http.MethodPost, "/api/v1/bookmarks/toggle", b, user)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// Local bookmarks on the device: one overlapping, one new.
	for _, b := range []gin.H{
		{"item_type": "major", "item_id": 1},
		{"item_type": "career", "item_id": 3},
	} {
		rec := e.do(t, http.MethodPost, "/api/v1/bookmarks/toggle", b, guest)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	// One completed, saved assessment so the dashboard has history.
	token, _ := runGuestAssessment(t, e)
	rec := e.do(t, http.MethodPost, "/api/v1/results/save", gin.H{"token": token}, user)
	require.Equal(t, http.StatusCreated, rec.Code)

	headers := map[string]string{
		"Authorization": user["Authorization"],
		guestHeader:     "guest-device-1",
	}
	rec = e.do(t, http.MethodGet, "/api/v1/dashboard", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap service.DashboardSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))

	assert.Equal(t, 1, snap.TotalAssessments)
	assert.Equal(t, 1, snap.TotalAssessmentsGrowth)
	require.NotNil(t, snap.Latest)
	assert.Equal(t, questionbank.Realistic, snap.Latest.Code.Dominant)

	// Union of {major:1, career:2} and {major:1, career:3}.
	require.Len(t, snap.SavedItems, 3)
	sources := map[[2]any]string{}
	names := map[[2]any]string{}
	for _, it := range snap.SavedItems {
		k := [2]any{it.ItemType, it.ItemID}
		sources[k] = it.Source
		names[k] = it.Name
	}
	assert.Equal(t, "durable", sources[[2]any{"major", int64(1)}])
	assert.Equal(t, "durable", sources[[2]any{"career", int64(2)}])
	assert.Equal(t, "local", sources[[2]any{"career", int64(3)}])
	assert.Equal(t, "Mechanical Engineering", names[[2]any{"major", int64(1)}])
	assert.Equal(t, "Park Ranger", names[[2]any{"career", int64(3)}])

	// Toggling the durable copy off leaves the local copy visible.
	rec = e.do(t, http.MethodPost, "/api/v1/bookmarks/toggle",
		gin.H{"item_type": "major", "item_id": 1}, user)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"saved":false`)

	rec = e.do(t, http.MethodGet, "/api/v1/dashboard", nil, headers)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.Len(t, snap.SavedItems, 3)
	assert.Equal(t, "local", sourcesOf(snap.SavedItems)[[2]any{"major", int64(1)}])
}

func sourcesOf(items []service.SavedItem) map[[2]any]string {
	out := make(map[[2]any]string, len(items))
	for _, it := range items {
		out[[2]any{it.ItemType, it.ItemID}] = it.Source
	}
	return out
}
