package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/careline/go-careline/internal/testutil"
	"github.com/careline/go-careline/internal/types"
	"github.com/stretchr/testify/assert"
)

func TestAuthMiddleware(t *testing.T) {
	app := &CarelineApp{
		log:        testutil.TestLogger(t),
		signingKey: []byte("test-signing-key"),
	}

	var gotSession types.Session
	var called bool
	next := func(w http.ResponseWriter, r *http.Request) {
		gotSession, _ = SessionFrom(r.Context())
		called = true
		w.WriteHeader(http.StatusOK)
	}

	t.Run("no cookie", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)

		app.authMiddleware(next)(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("invalid token", func(t *testing.T) {
		called = false
		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: "garbage"})

		app.authMiddleware(next)(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.False(t, called)
	})

	t.Run("valid token attaches session", func(t *testing.T) {
		called = false
		sess := types.Session{UserId: 42, Role: types.RoleDoctor, DoctorId: 7}
		token, err := app.createJwtForSession(sess, time.Hour)
		assert.NoError(t, err)

		rr := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
		req.AddCookie(&http.Cookie{Name: tokenCookieKey, Value: token})

		app.authMiddleware(next)(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.True(t, called)
		assert.Equal(t, sess, gotSession)
		assert.Contains(t, rr.Header().Get("Cache-Control"), "no-store")
	})
}

func TestRequireRole(t *testing.T) {
	app := &CarelineApp{
		log:        testutil.TestLogger(t),
		signingKey: []byte("test-signing-key"),
	}

	var called bool
	next := func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}

	tcases := []struct {
		name         string
		sessionRole  string
		requiredRole string
		expectedCode int
	}{
		{
			name:         "matching role",
			sessionRole:  types.RoleDoctor,
			requiredRole: types.RoleDoctor,
			expectedCode: http.StatusOK,
		},
		{
			name:         "wrong role",
			sessionRole:  types.RolePatient,
			requiredRole: types.RoleDoctor,
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			called = false
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/availability", nil)
			req = req.WithContext(WithSession(req.Context(), types.Session{UserId: 1, Role: tc.sessionRole}))

			app.requireRole(tc.requiredRole, next)(rr, req)
			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.Equal(t, tc.expectedCode == http.StatusOK, called)
		})
	}
}

func TestErrorHandler(t *testing.T) {
	app := &CarelineApp{log: testutil.TestLogger(t)}

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/doctors", nil)

	app.errorHandler(panicky).ServeHTTP(rr, req)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "close", rr.Header().Get("Connection"))
}
