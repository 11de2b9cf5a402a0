package handlers

import (
	"net/http"

	"schemagraph/application/services"
	"schemagraph/domain/core/entities"
	"schemagraph/pkg/common"
	apperrors "schemagraph/pkg/errors"

	"go.uber.org/zap"
)

// QueryRequest is the body of POST /api/cypher
type QueryRequest struct {
	Query string `json:"query"`
}

// ProjectRequest is the body of POST /api/graph/project
type ProjectRequest struct {
	Data []entities.QueryRecord `json:"data"`
}

// QueryHandler serves ad-hoc queries and projection of supplied records
type QueryHandler struct {
	explorer     *services.ExplorerService
	errHandler   *apperrors.ErrorHandler
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewQueryHandler creates a new query handler
func NewQueryHandler(explorer *services.ExplorerService, errHandler *apperrors.ErrorHandler, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{
		explorer:     explorer,
		errHandler:   errHandler,
		maxBodyBytes: 8 * common.DefaultMaxBodyBytes,
		logger:       logger,
	}
}

// Execute handles POST /api/cypher
func (h *QueryHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	var req QueryRequest
	if err := common.ParseJSONBody(w, r, &req, 0); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	resp, err := h.explorer.Execute(r.Context(), user.UserID, req.Query)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, resp)
}

// Project handles POST /api/graph/project
func (h *QueryHandler) Project(w http.ResponseWriter, r *http.Request) {
	if _, err := currentUser(r); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	var req ProjectRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}

	graph, err := h.explorer.Project(r.Context(), req.Data)
	if err != nil {
		h.errHandler.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, graph)
}
