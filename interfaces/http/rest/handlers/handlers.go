// Package handlers implements the REST endpoints on top of the application
// services. Response bodies are the bare resource; errors go through the
// shared ErrorHandler envelope.
package handlers

import (
	"net/http"

	"schemagraph/pkg/auth"
	apperrors "schemagraph/pkg/errors"
)

// currentUser returns the identity the auth middleware attached
func currentUser(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil || user.UserID == "" {
		return nil, apperrors.NewUnauthorizedError("Unauthorized")
	}
	return user, nil
}
