// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"themehub/internal/models"
	"themehub/internal/store"
)

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey string

const (
	// CreatorKey is the context key for the authenticated creator.
	CreatorKey contextKey = "creator"
)

// apiKey pulls the bearer token or X-API-Key header from a request.
func apiKey(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if key, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(key)
		}
	}
	return r.Header.Get("X-API-Key")
}

// LoadCreator resolves the request's API key to a creator and stores it
// in the request context. It does NOT enforce authentication; requests
// without a valid key simply proceed unauthenticated.
func LoadCreator(creators *store.CreatorStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKey(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}
			creator, err := creators.FindByAPIKey(r.Context(), key)
			if err != nil || creator == nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(
				context.WithValue(r.Context(), CreatorKey, creator)))
		})
	}
}

// RequireCreator rejects requests without an authenticated creator.
// Must be applied after LoadCreator in the middleware chain.
func RequireCreator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CreatorFromCtx(r.Context()) == nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates moderation endpoints behind the configured admin
// key. An empty configured key disables the endpoints entirely.
func RequireAdmin(adminKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := apiKey(r)
			if adminKey == "" || subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
				http.Error(w, "Forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CreatorFromCtx returns the authenticated creator, or nil.
func CreatorFromCtx(ctx context.Context) *models.Creator {
	creator, _ := ctx.Value(CreatorKey).(*models.Creator)
	return creator
}
