package schedule_api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ms-companion/internal/database/dbtest"
	"ms-companion/internal/identity/identity_api"
	"ms-companion/internal/logger"
	"ms-companion/internal/models"
	"ms-companion/internal/schedule/db"
	"ms-companion/internal/schedule/schedule_api"
	schedule "ms-companion/internal/schedule/service"
	"ms-companion/internal/utils"
)

type fixedSession struct {
	session *models.Session
}

func (f fixedSession) CurrentSession(_ context.Context, token string) *models.Session {
	if token == "valid" {
		return f.session
	}
	return nil
}

func newRouter(t *testing.T) http.Handler {
	bunDB := dbtest.NewSQLite(t)
	dbtest.InsertUser(t, bunDB, "u1", "Ada", "+15551234567")
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	dbtest.InsertEvent(t, bunDB, "e1", "Opening", models.EventTypeCeremony, base)
	dbtest.InsertEvent(t, bunDB, "e2", "Lunch", models.EventTypeFood, base.Add(3*time.Hour))

	h := schedule_api.NewHandler(schedule.NewScheduleService(&db.DB{Bun: bunDB}, logger.Discard()), logger.Discard())
	resolver := fixedSession{session: &models.Session{User: models.SessionUser{ID: "u1"}}}

	r := chi.NewRouter()
	r.Use(identity_api.SessionMiddleware(resolver, "companion_session"))
	r.Route("/api", func(r chi.Router) {
		h.RegisterPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(identity_api.RequireSession)
			h.RegisterSessionRoutes(r)
		})
	})
	return r
}

func call(t *testing.T, h http.Handler, method, path string, authed bool) (int, utils.APIResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if authed {
		req.Header.Set("Authorization", "Bearer valid")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp utils.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec.Code, resp
}

func TestToggleAndListOverHTTP(t *testing.T) {
	r := newRouter(t)

	code, resp := call(t, r, http.MethodPost, "/api/events/e2/bookmark", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"isBookmarked": true}, resp.Data)

	code, resp = call(t, r, http.MethodGet, "/api/bookmarks", true)
	require.Equal(t, http.StatusOK, code)
	list := resp.Data.([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "e2", list[0].(map[string]interface{})["id"])

	code, resp = call(t, r, http.MethodGet, "/api/events", false)
	require.Equal(t, http.StatusOK, code)
	for _, e := range resp.Data.([]interface{}) {
		assert.Equal(t, false, e.(map[string]interface{})["isBookmarked"])
	}

	code, resp = call(t, r, http.MethodPost, "/api/events/e2/bookmark", true)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"isBookmarked": false}, resp.Data)
}

func TestBookmarkRequiresSession(t *testing.T) {
	r := newRouter(t)

	code, _ := call(t, r, http.MethodPost, "/api/events/e1/bookmark", false)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = call(t, r, http.MethodGet, "/api/bookmarks", false)
	assert.Equal(t, http.StatusUnauthorized, code)
}
