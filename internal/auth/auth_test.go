package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-0123456789"

func signedToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "tester",
		"exp": exp.Unix(),
		"iat": time.Now().Unix(),
	})
	s, err := token.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func TestValidateJWTFromRequest(t *testing.T) {
	tokenString := signedToken(t, testSecret, time.Now().Add(time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/resolve", nil)
	r.Header.Set("Authorization", "Bearer "+tokenString)

	token, err := ValidateJWTFromRequest(r, testSecret)
	if err != nil {
		t.Fatalf("ValidateJWTFromRequest: %v", err)
	}
	if !token.Valid {
		t.Fatal("token reported invalid")
	}
}

func TestValidateJWTQueryParam(t *testing.T) {
	tokenString := signedToken(t, testSecret, time.Now().Add(time.Hour))

	r := httptest.NewRequest(http.MethodGet, "/resolve?token="+tokenString, nil)
	if _, err := ValidateJWTFromRequest(r, testSecret); err != nil {
		t.Fatalf("query param token rejected: %v", err)
	}
}

func TestValidateJWTFailures(t *testing.T) {
	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing token", func(r *http.Request) {}},
		{"malformed header", func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		}},
		{"wrong secret", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signedToken(t, "other-secret", time.Now().Add(time.Hour)))
		}},
		{"expired", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, time.Now().Add(-time.Hour)))
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/resolve", nil)
			tc.setup(r)
			if _, err := ValidateJWTFromRequest(r, testSecret); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Middleware(testSecret, "HS256", next)

	r := httptest.NewRequest(http.MethodPost, "/sniff", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated request: status = %d, want 401", w.Code)
	}

	r = httptest.NewRequest(http.MethodPost, "/sniff", nil)
	r.Header.Set("Authorization", "Bearer "+signedToken(t, testSecret, time.Now().Add(time.Hour)))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("authenticated request: status = %d, want 204", w.Code)
	}
}
