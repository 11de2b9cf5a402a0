package handlers

import (
	"net/http"

	"schemagraph/application/services"
	"schemagraph/pkg/common"
	apperrors "schemagraph/pkg/errors"

	"go.uber.org/zap"
)

// AuthHandler serves registration and login
type AuthHandler struct {
	auth       *services.AuthService
	errHandler *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(auth *services.AuthService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, errHandler: errHandler, logger: logger}
}

// Register handles POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var creds services.Credentials
	if err := common.ParseJSONBody(w, r, &creds, 0); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	result, err := h.auth.Register(r.Context(), creds)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// Login handles POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds services.Credentials
	if err := common.ParseJSONBody(w, r, &creds, 0); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	result, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}
