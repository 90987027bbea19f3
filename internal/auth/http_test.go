// ABOUTME: Tests for bearer extraction and upstream token introspection
// ABOUTME: Uses httptest servers standing in for the identity provider

package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		wantToken string
		wantErr   string
	}{
		{"valid", "Bearer abc", "abc", ""},
		{"lowercase scheme", "bearer abc", "abc", ""},
		{"padded token", "Bearer   abc  ", "abc", ""},
		{"missing", "", "", "missing authorization header"},
		{"wrong scheme", "Basic abc", "", "invalid authorization header format"},
		{"no token", "Bearer", "", "invalid authorization header format"},
		{"blank token", "Bearer   ", "", "empty token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, errMsg := extractBearerToken(tt.header)
			if token != tt.wantToken || errMsg != tt.wantErr {
				t.Errorf("extractBearerToken(%q) = (%q, %q), want (%q, %q)", tt.header, token, errMsg, tt.wantToken, tt.wantErr)
			}
		})
	}
}

func introspectionServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if user, pass, ok := r.BasicAuth(); !ok || user != "client" || pass != "secret" {
			t.Errorf("basic auth = (%q, %q, %v)", user, pass, ok)
		}
		if err := r.ParseForm(); err != nil || r.PostForm.Get("token") != "tok" {
			t.Errorf("token form value = %q", r.PostForm.Get("token"))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestIntrospector_Verify(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name        string
		status      int
		body        string
		wantInvalid bool
		wantErr     bool
	}{
		{"active with scope", http.StatusOK, `{"active":true,"scope":"openid enapter","exp":` + itoa(future) + `}`, false, false},
		{"inactive", http.StatusOK, `{"active":false}`, true, true},
		{"expired", http.StatusOK, `{"active":true,"scope":"enapter","exp":` + itoa(past) + `}`, true, true},
		{"missing scope", http.StatusOK, `{"active":true,"scope":"openid"}`, true, true},
		{"server error", http.StatusInternalServerError, `boom`, false, true},
		{"bad json", http.StatusOK, `{`, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := introspectionServer(t, tt.status, tt.body)
			i := NewIntrospector(srv.URL, "client", "secret", []string{"enapter"}, srv.Client())

			result, err := i.Verify(context.Background(), "tok")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if got := errors.Is(err, ErrInvalidToken); got != tt.wantInvalid {
					t.Errorf("errors.Is(err, ErrInvalidToken) = %v, want %v (err: %v)", got, tt.wantInvalid, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.Active {
				t.Error("expected active result")
			}
		})
	}
}

func TestRedirectAllowed(t *testing.T) {
	patterns := []string{"http://localhost:*", "https://claude.ai/api/mcp/auth_callback"}

	tests := []struct {
		uri  string
		want bool
	}{
		{"http://localhost:6274/oauth/callback", true},
		{"https://claude.ai/api/mcp/auth_callback", true},
		{"https://claude.ai/api/mcp/auth_callback/extra", false},
		{"https://evil.example.com/?x=http://localhost:1", false},
		{"http://localhost.evil.com", true},
	}
	for _, tt := range tests {
		if got := redirectAllowed(patterns, tt.uri); got != tt.want {
			t.Errorf("redirectAllowed(%q) = %v, want %v", tt.uri, got, tt.want)
		}
	}

	if !redirectAllowed(nil, "https://anything.example.com") {
		t.Error("empty allowlist should allow everything")
	}
}

func TestVerifyPKCE(t *testing.T) {
	// RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	challenge := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if !verifyPKCE(verifier, challenge) {
		t.Error("expected RFC example to verify")
	}
	if verifyPKCE("other", challenge) {
		t.Error("wrong verifier should not verify")
	}
	if verifyPKCE("", "") {
		t.Error("empty values should not verify")
	}
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
