package web

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tilda-center/backend/internal/model"
)

type contextKey string

const identityKey contextKey = "identity"

// identityFrom returns the authenticated caller stored by the auth
// middleware, if any.
func identityFrom(ctx context.Context) (model.Identity, bool) {
	id, ok := ctx.Value(identityKey).(model.Identity)
	return id, ok
}

// verifyToken validates a bearer token and extracts the caller's email.
// Tokens are HS256-signed by the external auth service; the email comes
// from the "email" claim, falling back to the subject.
func (s *Server) verifyToken(r *http.Request) (model.Identity, error) {
	header := r.Header.Get("Authorization")
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || raw == "" {
		return model.Identity{}, fmt.Errorf("missing bearer token")
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return model.Identity{}, fmt.Errorf("parsing token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return model.Identity{}, fmt.Errorf("unexpected claims type")
	}

	email, _ := claims["email"].(string)
	if email == "" {
		if sub, err := claims.GetSubject(); err == nil {
			email = sub
		}
	}
	if email == "" {
		return model.Identity{}, fmt.Errorf("token has no email claim")
	}

	return model.Identity{Email: email}, nil
}

// requireAuth rejects requests without a valid token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := s.verifyToken(r)
		if err != nil {
			s.respondDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey, id)))
	})
}

// optionalAuth attaches an identity when a valid token is present and
// passes the request through anonymously otherwise.
func (s *Server) optionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := s.verifyToken(r); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
		}
		next.ServeHTTP(w, r)
	})
}
