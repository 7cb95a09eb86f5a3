package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/studyshelf/internal/engine"
	"github.com/mrlokans/studyshelf/internal/locker"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestParseIDParam_Valid(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "123"}}

	id, ok := parseIDParam(c, "id")

	assert.True(t, ok)
	assert.Equal(t, uint(123), id)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseIDParam_Invalid(t *testing.T) {
	for _, value := range []string{"abc", "-1", "0"} {
		t.Run(value, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Params = gin.Params{{Key: "id", Value: value}}

			id, ok := parseIDParam(c, "id")

			assert.False(t, ok)
			assert.Equal(t, uint(0), id)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "invalid id")
		})
	}
}

func TestParseQueryInt(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		want   int
		wantOK bool
	}{
		{"missing uses fallback", "/", 20, true},
		{"valid", "/?limit=5", 5, true},
		{"negative", "/?limit=-5", 0, false},
		{"garbage", "/?limit=x", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, tt.query, nil)

			got, ok := parseQueryInt(c, "limit", 20)

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRespondEngineError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &engine.Error{Kind: engine.KindValidation, Op: "op", Msg: "bad"}, http.StatusBadRequest, "validation"},
		{"not found", &engine.Error{Kind: engine.KindNotFound, Op: "op", Msg: "missing"}, http.StatusNotFound, "not_found"},
		{"conflict", &engine.Error{Kind: engine.KindConflict, Op: "op", Msg: "dup"}, http.StatusConflict, "conflict"},
		{"capacity", &engine.Error{Kind: engine.KindCapacity, Op: "op", Msg: "full"}, http.StatusConflict, "capacity_exceeded"},
		{"invariant", &engine.Error{Kind: engine.KindInvariant, Op: "op", Msg: "no"}, http.StatusUnprocessableEntity, "invariant"},
		{"permission", &engine.Error{Kind: engine.KindPermission, Op: "op", Msg: "denied"}, http.StatusForbidden, "permission"},
		{"lock unavailable", locker.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{"deadline", context.DeadlineExceeded, http.StatusServiceUnavailable, "unavailable"},
		{"other", errors.New("disk on fire"), http.StatusInternalServerError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			respondEngineError(c, tt.err, "test")

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				assert.Contains(t, w.Body.String(), `"code":"`+tt.wantCode+`"`)
			}
			assert.NotContains(t, w.Body.String(), "disk on fire")
		})
	}
}

func TestRespondEngineError_MarksRejection(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondEngineError(c, &engine.Error{Kind: engine.KindCapacity, Op: "join group", Msg: "full"}, "join group")

	assert.Equal(t, "capacity", c.GetString(contextKeyRejection))
}
