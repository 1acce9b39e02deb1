package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/blues/civicops/internal/config"
	"github.com/blues/civicops/internal/model"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *SessionStore {
	return NewSessionStore(config.AuthConfig{
		CookieName: "sid",
		SessionTTL: 60,
		Users: []config.UserConfig{
			{Username: "alice", Password: "secret", Role: "pm"},
			{Username: "mallory", Password: "x", Role: "superuser"},
		},
	})
}

func TestCapabilityTable(t *testing.T) {
	cases := []struct {
		role model.Role
		cap  Capability
		want bool
	}{
		{model.RoleAdmin, CapScheduleDelete, true},
		{model.RoleAdmin, CapApprovalAct, false},
		{model.RolePM, CapScheduleWrite, true},
		{model.RolePM, CapApprovalAct, false},
		{model.RoleRDCManager, CapApprovalAct, true},
		{model.RoleRDCManager, CapScheduleWrite, false},
		{model.RoleMinister, CapApprovalRead, true},
		{model.RoleViewer, CapScheduleRead, true},
		{model.RoleViewer, CapApprovalRead, false},
		{model.Role("guest"), CapScheduleRead, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Can(tc.role, tc.cap), "%s %s", tc.role, tc.cap)
	}

	caps := CapabilitiesOf(model.RoleViewer)
	caps[0] = CapApprovalAct
	assert.False(t, Can(model.RoleViewer, CapApprovalAct))
}

func TestSessionStore_Login(t *testing.T) {
	store := newTestStore()

	s, err := store.Login("alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, model.RolePM, s.Role)
	assert.NotEmpty(t, s.Token)
	assert.Equal(t, time.Hour, store.TTL())

	got, err := store.Get(s.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = store.Login("alice", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.Login("bob", "secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = store.Login("mallory", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	store.Logout(s.Token)
	_, err = store.Get(s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionStore_Expiry(t *testing.T) {
	store := newTestStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	s := store.Issue("rdc", model.RoleRDCManager)
	_, err := store.Get(s.Token)
	require.NoError(t, err)

	now = now.Add(time.Hour)
	_, err = store.Get(s.Token)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNewSessionStore_DefaultTTL(t *testing.T) {
	store := NewSessionStore(config.AuthConfig{})
	assert.Equal(t, 12*time.Hour, store.TTL())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := newTestStore()

	r := gin.New()
	r.GET("/approve", Middleware(store, "sid"), RequireCapability(CapApprovalAct), func(c *gin.Context) {
		session, ok := CurrentSession(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"user": session.Username})
	})

	do := func(token string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/approve", nil)
		if token != "" {
			req.AddCookie(&http.Cookie{Name: "sid", Value: token})
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := do("")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Authentication required"}`, w.Body.String())

	w = do("unknown-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(store.Issue("alice", model.RolePM).Token)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"Access denied"}`, w.Body.String())

	w = do(store.Issue("min", model.RoleMinister).Token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":"min"}`, w.Body.String())
}
