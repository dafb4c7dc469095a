package testutil

import (
	"context"
	"net/http"
	"time"

	id "kycflow/pkg/domain"
	"kycflow/pkg/requestcontext"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
// If the userID is not a valid UUID, it will not be added to the context.
func WithUserID(req *http.Request, userID string) *http.Request {
	if parsedUserID, err := id.ParseUserID(userID); err == nil {
		ctx := context.WithValue(req.Context(), requestcontext.ContextKeyUserID, parsedUserID)
		return req.WithContext(ctx)
	}
	return req
}

// WithPrincipal adds the full authenticated principal to the request context.
// Invalid user IDs are silently ignored.
func WithPrincipal(req *http.Request, userID id.UserID, role, kycID string) *http.Request {
	if userID.IsNil() {
		return req
	}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), userID, role, kycID))
}

// WithToken adds the token identifier and an expiry one hour out to the
// request context, as logout needs both.
func WithToken(req *http.Request, jti string) *http.Request {
	exp := requestcontext.Now(req.Context()).Add(time.Hour)
	return req.WithContext(requestcontext.WithToken(req.Context(), jti, exp))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
