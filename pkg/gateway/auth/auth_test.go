package auth

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
		want   string
		ok     bool
	}{
		{"header token", "Bearer tv_sk_abc", "", "tv_sk_abc", true},
		{"header with padding", "Bearer   tv_sk_abc  ", "", "tv_sk_abc", true},
		{"query fallback", "", "tv_sk_q", "tv_sk_q", true},
		{"header wins over query", "Bearer tv_sk_h", "tv_sk_q", "tv_sk_h", true},
		{"wrong scheme", "Basic dXNlcg==", "", "", false},
		{"empty bearer", "Bearer ", "", "", false},
		{"nothing", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "/v1/stream/web"
			if tt.query != "" {
				url += "?api_key=" + tt.query
			}
			r := httptest.NewRequest("GET", url, nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, ok := ParseBearer(r)
			if ok != tt.ok || got != tt.want {
				t.Fatalf("ParseBearer = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestPrincipalRoundTrip(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{APIKey: "tv_sk_abc"})
	p, ok := PrincipalFrom(ctx)
	if !ok || p.APIKey != "tv_sk_abc" {
		t.Fatalf("PrincipalFrom = (%v, %v)", p, ok)
	}

	if _, ok := PrincipalFrom(context.Background()); ok {
		t.Fatalf("empty context should not carry a principal")
	}
}
