package handlers

import (
	"net/http"

	"schemagraph/application/services"
	"schemagraph/pkg/common"
	apperrors "schemagraph/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DataSourceHandler serves the data source registry and schema browsing
type DataSourceHandler struct {
	dataSources *services.DataSourceService
	errHandler  *apperrors.ErrorHandler
	logger      *zap.Logger
}

// NewDataSourceHandler creates a new data source handler
func NewDataSourceHandler(dataSources *services.DataSourceService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *DataSourceHandler {
	return &DataSourceHandler{dataSources: dataSources, errHandler: errHandler, logger: logger}
}

// Create handles POST /api/datasources
func (h *DataSourceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	var input services.RegisterDataSourceInput
	if err := common.ParseJSONBody(w, r, &input, 0); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	ds, err := h.dataSources.Register(r.Context(), user.UserID, input)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, ds)
}

// List handles GET /api/datasources
func (h *DataSourceHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	list, err := h.dataSources.List(r.Context(), user.UserID)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, list)
}

// Schema handles GET /api/datasources/{id}/schema
func (h *DataSourceHandler) Schema(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	schema, err := h.dataSources.Schema(r.Context(), user.UserID, chi.URLParam(r, "id"))
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, schema)
}
