package models

import "time"

// EndpointClass groups routes that share one throttling policy.
type EndpointClass string

const (
	// ClassAuth covers the unauthenticated /auth/register and /auth/login routes.
	ClassAuth EndpointClass = "auth"
)

// Policy is a sliding-window budget: at most Limit requests per Window.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy throttles anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// RateLimitResult is the outcome of charging one request against a bucket.
type RateLimitResult struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds
}

// BucketKey namespaces a bucket by class and client identifier.
func BucketKey(class EndpointClass, identifier string) string {
	return "rl:" + string(class) + ":" + identifier
}
