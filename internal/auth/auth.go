// Package auth contains JWT bearer authentication for the HTTP API.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// SetLogger replaces the package-level logger.
func SetLogger(l *logrus.Logger) { log = l }

// ValidateJWTFromRequest extracts and validates a JWT from the request.
// The token is read from the Authorization header or, failing that,
// the 'token' query parameter.
func ValidateJWTFromRequest(r *http.Request, secret string) (*jwt.Token, error) {
	authHeader := r.Header.Get("Authorization")
	tokenString := ""

	if authHeader != "" {
		splitToken := strings.Split(authHeader, "Bearer ")
		if len(splitToken) == 2 {
			tokenString = splitToken[1]
		} else {
			return nil, errors.New("invalid Authorization header format")
		}
	} else {
		tokenString = r.URL.Query().Get("token")
		if tokenString == "" {
			return nil, errors.New("missing JWT in Authorization header or 'token' query parameter")
		}
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("JWT validation failed: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("invalid JWT")
	}

	return token, nil
}

// Middleware gates a handler behind JWT validation. Requests without a
// valid token receive 401.
func Middleware(secret, algorithm string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := ValidateJWTFromRequest(r, secret)
		if err != nil {
			log.Debugf("JWT rejected from %s: %v", r.RemoteAddr, err)
			w.Header().Set("WWW-Authenticate", `Bearer realm="mime-resolver"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		if algorithm != "" && token.Method.Alg() != algorithm {
			log.Warnf("JWT with unexpected algorithm %s from %s", token.Method.Alg(), r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
