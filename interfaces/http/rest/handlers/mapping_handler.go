package handlers

import (
	"net/http"

	"schemagraph/application/services"
	"schemagraph/domain/core/entities"
	"schemagraph/pkg/common"
	apperrors "schemagraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MappingHandler serves column-to-node mappings
type MappingHandler struct {
	mappings   *services.MappingService
	errHandler *apperrors.ErrorHandler
	logger     *zap.Logger
}

// NewMappingHandler creates a new mapping handler
func NewMappingHandler(mappings *services.MappingService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *MappingHandler {
	return &MappingHandler{mappings: mappings, errHandler: errHandler, logger: logger}
}

// Create handles POST /api/mappings
func (h *MappingHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	var fields entities.MappingFields
	if err := common.ParseJSONBody(w, r, &fields, 0); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	mapping, err := h.mappings.Create(r.Context(), user.UserID, fields)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, mapping)
}

// List handles GET /api/mappings/{datasourceId}
func (h *MappingHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	list, err := h.mappings.List(r.Context(), user.UserID, chi.URLParam(r, "datasourceId"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, list)
}
