package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func protectedHandler(t *testing.T, a *TokenAuthenticator) http.Handler {
	t.Helper()
	return a.RequireAdmin()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity.Role != RoleAdmin {
			t.Fatalf("expected admin identity on context, got %+v ok=%v", identity, ok)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestNewTokenAuthenticatorRequiresToken(t *testing.T) {
	if _, err := NewTokenAuthenticator("   "); err == nil {
		t.Fatal("expected error for blank token")
	}
}

func TestRequireAdmin(t *testing.T) {
	authn, err := NewTokenAuthenticator("s3cret")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handler := protectedHandler(t, authn)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid token", "Bearer s3cret", http.StatusNoContent},
		{"case insensitive scheme", "bearer s3cret", http.StatusNoContent},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "Basic s3cret", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp := httptest.NewRecorder()
			handler.ServeHTTP(resp, req)
			if resp.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, resp.Code)
			}
		})
	}
}
