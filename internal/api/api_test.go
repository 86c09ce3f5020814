package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wfunc/ap-itemlog/internal/classify"
	"github.com/wfunc/ap-itemlog/internal/config"
	"github.com/wfunc/ap-itemlog/internal/repository"
	"github.com/wfunc/ap-itemlog/internal/rules"
	"github.com/wfunc/ap-itemlog/internal/utils"
	"github.com/wfunc/ap-itemlog/internal/websocket"
	"github.com/wfunc/ap-itemlog/internal/world"
)

type testAPI struct {
	router *Router
	world  *world.World
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := repository.TestDB(t)
	classifications := repository.NewClassificationRepository(db)
	locations := repository.NewLocationRepository(db)

	registry := rules.NewRegistry()
	w := world.New(locations, registry.AlwaysCheckable)
	resolver := classify.New(classifications, registry, time.Hour)

	passwordHash, err := utils.HashPassword("sekrit")
	require.NoError(t, err)

	router := NewRouter(&Deps{
		World:           w,
		Resolver:        resolver,
		Classifications: classifications,
		Locations:       locations,
		Hub:             websocket.NewHub(zap.NewNop()),
		JWTManager:      utils.NewJWTManager("test-secret", time.Hour),
		Admin: &config.AdminConfig{
			Username:     "admin",
			PasswordHash: passwordHash,
		},
	})
	return &testAPI{router: router, world: w}
}

func (a *testAPI) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	a.router.Engine().ServeHTTP(recorder, req)
	return recorder
}

func (a *testAPI) login(t *testing.T) string {
	t.Helper()
	resp := a.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "admin",
		"password": "sekrit",
	})
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Data struct {
			Token string `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.NotEmpty(t, body.Data.Token)
	return body.Data.Token
}

func TestHealthCheck(t *testing.T) {
	a := newTestAPI(t)
	resp := a.request(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"ok"`)
}

func TestGameStatus(t *testing.T) {
	a := newTestAPI(t)
	a.world.RegisterPlayer("Alice", "Celeste")
	a.world.SetSeedInfo("12345", "0.4.4")

	resp := a.request(t, http.MethodGet, "/api/v1/status", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Alice")
	assert.Contains(t, resp.Body.String(), "12345")
}

func TestPlayerDetail(t *testing.T) {
	a := newTestAPI(t)
	a.world.RegisterPlayer("Alice", "Celeste")

	resp := a.request(t, http.MethodGet, "/api/v1/status/players/Alice", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = a.request(t, http.MethodGet, "/api/v1/status/players/Nobody", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestLogin_WrongCredentials(t *testing.T) {
	a := newTestAPI(t)

	resp := a.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "admin",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)

	resp = a.request(t, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "nobody",
		"password": "sekrit",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminOverride_RequiresAuth(t *testing.T) {
	a := newTestAPI(t)

	resp := a.request(t, http.MethodPut, "/api/v1/admin/classifications", "", gin.H{
		"game":           "Celeste",
		"item":           "Strawberry",
		"classification": "filler",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAdminOverrideClassification(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t)

	// 先写入两个待定物品
	db := a.router.statusHandler.classifications
	require.NoError(t, db.Ensure(context.Background(), "Celeste", "Strawberry"))
	require.NoError(t, db.Ensure(context.Background(), "Celeste", "Crystal Heart"))

	resp := a.request(t, http.MethodPut, "/api/v1/admin/classifications", token, gin.H{
		"game":           "Celeste",
		"item":           "%",
		"classification": "filler",
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"affected":2`)

	// 查询面也能看到
	resp = a.request(t, http.MethodGet, "/api/v1/status/classifications/Celeste", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "filler")
}

func TestAdminOverrideClassification_RejectsInvalidValue(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t)

	resp := a.request(t, http.MethodPut, "/api/v1/admin/classifications", token, gin.H{
		"game":           "Celeste",
		"item":           "Strawberry",
		"classification": "legendary",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestAdminOverrideCheckability(t *testing.T) {
	a := newTestAPI(t)
	token := a.login(t)

	locations := a.router.statusHandler.locations
	require.NoError(t, locations.Ensure(context.Background(), "Celeste", "Summit Chest"))

	resp := a.request(t, http.MethodPut, "/api/v1/admin/checkability", token, gin.H{
		"game":      "Celeste",
		"location":  "Summit%",
		"checkable": true,
	})
	require.Equal(t, http.StatusOK, resp.Code)

	resp = a.request(t, http.MethodGet, "/api/v1/status/checkability/Celeste", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"Summit Chest":true`)
}

func TestPendingClassifications(t *testing.T) {
	a := newTestAPI(t)

	db := a.router.statusHandler.classifications
	require.NoError(t, db.Ensure(context.Background(), "Celeste", "Mystery Orb"))

	resp := a.request(t, http.MethodGet, "/api/v1/status/classifications/pending", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "Mystery Orb")
}
