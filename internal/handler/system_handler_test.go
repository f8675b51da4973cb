package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type mockPinger struct{ err error }

func (p *mockPinger) Ping(context.Context) error { return p.err }

func TestSystemHandler_Health(t *testing.T) {
	tests := []struct {
		name       string
		h          *SystemHandler
		wantStatus int
	}{
		{"connected", &SystemHandler{db: &mockPinger{}}, http.StatusOK},
		{"ping fails", &SystemHandler{db: &mockPinger{err: errors.New("refused")}}, http.StatusServiceUnavailable},
		{"no database", &SystemHandler{}, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", tc.h.Health)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestSystemHandler_Root(t *testing.T) {
	h := &SystemHandler{name: "next-chat", version: "2.0.0"}
	r := gin.New()
	r.GET("/", h.Root)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"version":"2.0.0"`) {
		t.Errorf("body = %s", body)
	}
}
