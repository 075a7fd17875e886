package cli

import (
	"testing"
	"time"

	"github.com/kestrelsec/kestrel/internal/domain"
)

func TestRequestTimeoutResolution(t *testing.T) {
	cases := []struct {
		name  string
		flag  time.Duration
		prefs domain.ConfigPreferences
		want  time.Duration
	}{
		{"flag overrides preference", 5 * time.Second, domain.ConfigPreferences{TimeoutSeconds: 90}, 5 * time.Second},
		{"preference applies without flag", 0, domain.ConfigPreferences{TimeoutSeconds: 90}, 90 * time.Second},
		{"built-in default", 0, domain.ConfigPreferences{}, domain.DefaultBackendTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := requestTimeout(tc.flag, tc.prefs); got != tc.want {
				t.Fatalf("requestTimeout = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestParseParametersRejectsBadLocations(t *testing.T) {
	if _, err := parseParameters([]string{"id:path", "token:cookie"}); err == nil {
		t.Fatal("expected error for unknown parameter location")
	}
	params, err := parseParameters([]string{"id:path", "limit:query"})
	if err != nil {
		t.Fatalf("parseParameters error: %v", err)
	}
	if len(params) != 2 || params[1].In != domain.LocationQuery {
		t.Fatalf("unexpected parameters: %+v", params)
	}
}
