package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/blues/civicops/internal/auth"
	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/logger"
	"github.com/blues/civicops/internal/logic"
	"github.com/blues/civicops/internal/model"
	"github.com/blues/civicops/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	logger.SetDefaultLogger(logger.NewNop())
	os.Exit(m.Run())
}

type testServer struct {
	t        *testing.T
	cfg      *config.Config
	engine   *gin.Engine
	services *logic.Services
	sessions *auth.SessionStore
	tokens   map[model.Role]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Default()
	services := logic.NewServices(repository.NewMemoryRepositories())
	sessions := auth.NewSessionStore(cfg.Auth)

	s := &testServer{
		t:        t,
		cfg:      cfg,
		engine:   Setup(cfg, services, sessions),
		services: services,
		sessions: sessions,
		tokens:   make(map[model.Role]string),
	}
	for _, role := range []model.Role{model.RoleAdmin, model.RolePM, model.RoleRDCManager, model.RoleMinister, model.RoleViewer} {
		s.tokens[role] = sessions.Issue(string(role)+"-user", role).Token
	}
	return s
}

// do 以指定角色发送请求，role 为空时不带会话
func (s *testServer) do(role model.Role, method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.AddCookie(&http.Cookie{Name: s.cfg.Auth.CookieName, Value: s.tokens[role]})
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do("", http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"civicops"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)

	w := s.do("", http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "rdc", "password": "rdc"})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[map[string]interface{}](t, w)
	assert.Equal(t, "rdc_manager", me["role"])

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.Equal(t, s.cfg.Auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(cookies[0])
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rdc", decode[map[string]interface{}](t, w)["username"])

	w = s.do("", http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "rdc", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do("", http.MethodPost, "/api/v1/auth/login", map[string]string{"username": "rdc"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do("", http.MethodGet, "/api/v1/auth/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScheduleEndpoints(t *testing.T) {
	s := newTestServer(t)
	base := "/api/v1/projects/proj-X/schedules"

	w := s.do(model.RolePM, http.MethodGet, base+"/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"No schedule found"}`, w.Body.String())

	w = s.do(model.RolePM, http.MethodPost, base, map[string]interface{}{
		"templateId":   "tpl-road",
		"templateName": "Road works",
		"selectedPhases": []map[string]interface{}{
			{"id": "p1", "name": "Design", "durationDays": 4, "tasks": []map[string]interface{}{
				{"name": "Survey", "estimatedHours": 8},
				{"name": "Drawings", "estimatedHours": 8},
			}},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.ScheduleModel](t, w)
	assert.Equal(t, "proj-X", created.ProjectId)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, 2, created.TotalTasks)

	w = s.do(model.RoleViewer, http.MethodGet, base+"/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.Id, decode[model.ScheduleModel](t, w).Id)

	w = s.do(model.RoleViewer, http.MethodPost, base, map[string]interface{}{})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(model.RolePM, http.MethodPut, base+"/"+created.Id, map[string]interface{}{"status": "active", "version": 1})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[model.ScheduleModel](t, w)
	assert.Equal(t, model.ScheduleStatusActive, updated.Status)
	assert.Equal(t, "Road works", updated.Name)
	assert.Equal(t, 2, updated.Version)

	w = s.do(model.RolePM, http.MethodPut, base+"/"+created.Id, map[string]interface{}{"name": "stale", "version": 1})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(model.RolePM, http.MethodPut, base+"/"+created.Id, map[string]interface{}{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(model.RolePM, http.MethodPut, base+"/schedule-proj-X-1", map[string]interface{}{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(model.RoleAdmin, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode[map[string]interface{}](t, w)["total"])

	w = s.do(model.RoleRDCManager, http.MethodDelete, base+"/current", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(model.RolePM, http.MethodDelete, base+"/current", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Schedule deleted successfully"}`, w.Body.String())

	w = s.do(model.RolePM, http.MethodGet, base+"/current", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTaskEndpoints(t *testing.T) {
	s := newTestServer(t)

	schedule, err := s.services.Schedules.CreateSchedule(context.Background(), "proj-X", logic.CreateScheduleInput{Name: "plan"})
	require.NoError(t, err)
	base := "/api/v1/schedules/" + schedule.Id + "/tasks"

	w := s.do(model.RoleViewer, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.TaskModel](t, w), 3)

	w = s.do(model.RolePM, http.MethodPost, base+"/bulk", map[string]interface{}{
		"tasks": []map[string]interface{}{
			{"id": "task1", "name": "Survey"},
			{"id": "task2", "name": "Drawings"},
			{"id": "subtask", "name": "Benchmarks", "parentTaskId": "task1"},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"success":true,"taskCount":3}`, w.Body.String())

	w = s.do(model.RolePM, http.MethodGet, base+"/hierarchy", nil)
	require.Equal(t, http.StatusOK, w.Code)
	h := decode[logic.TaskHierarchy](t, w)
	require.Len(t, h.Children["task1"], 1)
	assert.Equal(t, "subtask", h.Children["task1"][0].Id)
	assert.Len(t, h.Roots, 2)

	w = s.do(model.RolePM, http.MethodPatch, base+"/task2", map[string]interface{}{"status": "completed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	task := decode[model.TaskModel](t, w)
	assert.Equal(t, 100, task.Progress)
	assert.Equal(t, "Drawings", task.Name)

	w = s.do(model.RolePM, http.MethodPatch, base+"/missing", map[string]interface{}{"status": "completed"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(model.RolePM, http.MethodPost, base+"/bulk", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"tasks is required"}`, w.Body.String())

	w = s.do(model.RolePM, http.MethodPost, "/api/v1/schedules/schedule-none-1/tasks/bulk", map[string]interface{}{"tasks": []interface{}{}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(model.RoleMinister, http.MethodPost, base+"/bulk", map[string]interface{}{"tasks": []interface{}{}})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestApprovalEndpoints(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	a, err := s.services.Approvals.CreateApproval(ctx, logic.NewApprovalInput{
		Type:        model.ApprovalTypeBudgetIncrease,
		Title:       "Budget increase",
		RequestedBy: "pm",
	})
	require.NoError(t, err)

	w := s.do(model.RoleRDCManager, http.MethodGet, "/api/v1/approvals/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[struct {
		Approvals []model.ApprovalModel `json:"approvals"`
		Summary   logic.ApprovalSummary `json:"summary"`
	}](t, w)
	require.Len(t, pending.Approvals, 1)
	assert.Equal(t, 1, pending.Summary.Pending)

	w = s.do(model.RoleMinister, http.MethodGet, "/api/v1/approvals/pending", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"approvals":[],"summary":{"total":0,"pending":0,"approved":0,"rejected":0,"overdue":0}}`, w.Body.String())

	w = s.do(model.RoleViewer, http.MethodGet, "/api/v1/approvals/pending", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(model.RoleAdmin, http.MethodGet, "/api/v1/approvals/pending?type=loan", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	action := "/api/v1/approvals/" + a.Id + "/action"

	w = s.do(model.RolePM, http.MethodPost, action, map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(model.RoleAdmin, http.MethodPost, action, map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(model.RoleMinister, http.MethodPost, action, map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(model.RoleRDCManager, http.MethodPost, action, map[string]string{"action": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(model.RoleRDCManager, http.MethodPost, action, map[string]string{"action": "approve", "comments": "ok"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[struct {
		Success bool `json:"success"`
		Result  struct {
			Approval model.ApprovalModel `json:"approval"`
			Changed  bool                `json:"changed"`
		} `json:"result"`
	}](t, w)
	assert.True(t, res.Success)
	assert.True(t, res.Result.Changed)
	assert.Equal(t, model.RoleMinister, res.Result.Approval.CurrentApprover)

	w = s.do(model.RoleMinister, http.MethodPost, action, map[string]string{"action": "deny"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(model.RoleAdmin, http.MethodGet, "/api/v1/approvals/"+a.Id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.ApprovalStatusRejected, decode[model.ApprovalModel](t, w).Status)

	w = s.do(model.RoleAdmin, http.MethodGet, "/api/v1/approvals/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(model.RoleRDCManager, http.MethodPost, "/api/v1/approvals/missing/action", map[string]string{"action": "approve"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCORS_OnlyAllowListedOriginsGetCredentials(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/auth/me", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRecovery_PanicReturnsGenericError(t *testing.T) {
	s := newTestServer(t)
	s.engine.GET("/boom", func(c *gin.Context) {
		panic("schedule store unavailable")
	})

	w := s.do("", http.MethodGet, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}
