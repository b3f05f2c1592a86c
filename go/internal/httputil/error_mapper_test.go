package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

var (
	errNotFound = errors.New("not found")
	errConflict = errors.New("conflict")
)

func TestErrorMapperMap(t *testing.T) {
	m := NewErrorMapper().
		WithMapping(errNotFound, http.StatusNotFound, "Not found").
		WithMapping(errConflict, http.StatusConflict, "Conflict")

	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"nil", nil, http.StatusOK, ""},
		{"direct", errNotFound, http.StatusNotFound, "Not found"},
		{"wrapped", fmt.Errorf("lookup: %w", errConflict), http.StatusConflict, "Conflict"},
		{"deadline", fmt.Errorf("publish: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timeout"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Map(tt.err)
			if got.Status != tt.status || got.Message != tt.msg {
				t.Fatalf("Map(%v) = %+v, expected {%d %q}", tt.err, got, tt.status, tt.msg)
			}
		})
	}
}

func TestWriteErrorHidesCause(t *testing.T) {
	m := NewErrorMapper().WithDefault(http.StatusBadGateway, "Upstream failed")
	rec := httptest.NewRecorder()

	m.WriteError(rec, errors.New("dial tcp 10.0.0.7:5672: connection refused"), nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(body) != 1 || body["detail"] != "Upstream failed" {
		t.Fatalf("unexpected body %v", body)
	}
}
