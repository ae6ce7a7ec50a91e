package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func request(t *testing.T, tenantID, userID int, role, modules string) *http.Request {
	t.Helper()
	r := httptest.NewRequest("GET", "/", nil)
	return r.WithContext(WithIdentity(r.Context(), tenantID, userID, role, modules))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireModule(t *testing.T) {
	handler := RequireModule("deviations")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "user", "checklists,deviations"))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "user", "checklists"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "user", ""))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireModuleTrimsSpaces(t *testing.T) {
	handler := RequireModule("kanban")(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "user", "checklists, kanban"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdmin(t *testing.T) {
	handler := Admin(okHandler())

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "admin", ""))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, request(t, 1, 1, "user,editor", ""))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestIdentityAccessors(t *testing.T) {
	ctx := WithIdentity(httptest.NewRequest("GET", "/", nil).Context(), 7, 3, "admin", "kanban")
	assert.Equal(t, 7, TenantID(ctx))
	assert.Equal(t, 3, UserID(ctx))
	assert.Equal(t, "admin", Role(ctx))
}
