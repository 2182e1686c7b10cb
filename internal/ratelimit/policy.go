// Package ratelimit implements fixed-window request limiting keyed by client and route.
package ratelimit

import "time"

// Policy is a limit of Max requests per Window. Message is returned to rejected clients.
type Policy struct {
	Name    string
	Window  time.Duration
	Max     int
	Message string
}

// Preset policies.
var (
	Strict = Policy{
		Name:    "strict",
		Window:  time.Minute,
		Max:     10,
		Message: "Too many requests. Please wait before trying again.",
	}
	// Auth guards credential endpoints against brute force.
	Auth = Policy{
		Name:    "auth",
		Window:  15 * time.Minute,
		Max:     5,
		Message: "Too many login attempts. Please try again later.",
	}
	General = Policy{
		Name:    "general",
		Window:  time.Minute,
		Max:     100,
		Message: "Rate limit exceeded. Please slow down.",
	}
	// Public applies to unauthenticated form submissions.
	Public = Policy{
		Name:    "public",
		Window:  time.Minute,
		Max:     30,
		Message: "Too many requests from this IP.",
	}
)
