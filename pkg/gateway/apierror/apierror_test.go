package apierror

import (
	"context"
	"fmt"
	"net/http"
	"testing"
)

func TestFromError_Mapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   Type
		wantStatus int
	}{
		{"deadline", context.DeadlineExceeded, ErrAPI, http.StatusGatewayTimeout},
		{"cancel", context.Canceled, ErrAPI, http.StatusRequestTimeout},
		{"not found", NotFound("toy"), ErrNotFound, http.StatusNotFound},
		{"invalid", InvalidRequest("name is required", "name"), ErrInvalidRequest, http.StatusBadRequest},
		{"wrapped", fmt.Errorf("load: %w", NotFound("agent")), ErrNotFound, http.StatusNotFound},
		{"opaque", fmt.Errorf("boom"), ErrAPI, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, status := FromError(tt.err, "req_1")
			if e.Type != tt.wantType {
				t.Fatalf("type=%s, want %s", e.Type, tt.wantType)
			}
			if status != tt.wantStatus {
				t.Fatalf("status=%d, want %d", status, tt.wantStatus)
			}
			if e.RequestID != "req_1" {
				t.Fatalf("request_id=%q, want req_1", e.RequestID)
			}
		})
	}
}

func TestFromError_NilIsOK(t *testing.T) {
	e, status := FromError(nil, "req_1")
	if e != nil || status != http.StatusOK {
		t.Fatalf("got (%v, %d), want (nil, 200)", e, status)
	}
}

func TestError_StringIncludesParam(t *testing.T) {
	e := InvalidRequest("must be set", "name")
	if got := e.Error(); got != "invalid_request_error: must be set (param=name)" {
		t.Fatalf("Error() = %q", got)
	}
}
