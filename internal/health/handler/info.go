package handler

import (
	"net/http"

	"rocr/backend/internal/platform/httpx"
)

// Version is reported by the root endpoint.
const Version = "0.1.0"

// Root handles GET /.
func Root(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]string{
		"name":          "ROCR Backend API",
		"version":       Version,
		"status":        "running",
		"documentation": "/api/v1",
	})
}

var endpoints = map[string]map[string]string{
	"auth": {
		"POST /api/v1/auth/login":           "Login with email and password",
		"POST /api/v1/auth/refresh":         "Refresh access token",
		"POST /api/v1/auth/logout":          "Logout and invalidate tokens",
		"GET /api/v1/auth/me":               "Get current user info",
		"POST /api/v1/auth/update-password": "Update password",
	},
	"users": {
		"GET /api/v1/users":                     "List all users (admin only)",
		"POST /api/v1/users":                    "Create new user (admin only)",
		"GET /api/v1/users/:id":                 "Get user by ID (admin only)",
		"PATCH /api/v1/users/:id":               "Update user (admin only)",
		"DELETE /api/v1/users/:id":              "Deactivate user (admin only)",
		"POST /api/v1/users/:id/reset-password": "Reset user password (admin only)",
	},
	"contacts": {
		"POST /api/v1/contacts":              "Submit contact form (public)",
		"GET /api/v1/contacts":               "List contacts (authenticated)",
		"GET /api/v1/contacts/:id":           "Get contact details (authenticated)",
		"PATCH /api/v1/contacts/:id":         "Update contact (authenticated)",
		"DELETE /api/v1/contacts/:id":        "Delete contact (manager+)",
		"GET /api/v1/contacts/stats/summary": "Get contact stats (authenticated)",
	},
	"health": {
		"GET /health":       "Health check",
		"GET /health/ready": "Readiness check",
		"GET /health/live":  "Liveness check",
	},
}

// APIInfo handles GET /api/v1.
func APIInfo(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"version":   "1.0",
		"endpoints": endpoints,
	})
}
