package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/beach-tennis-live/services"
)

type ResultHandler struct {
	resultService services.ResultService
}

func NewResultHandler(rs services.ResultService) *ResultHandler {
	return &ResultHandler{resultService: rs}
}

func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequestResponse(w, r, errors.New("limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	results, err := h.resultService.ListResults(r.Context(), r.URL.Query().Get("tournamentId"), limit)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": results}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ResultHandler) DeleteResult(w http.ResponseWriter, r *http.Request) {
	if err := h.resultService.DeleteResult(r.Context(), pathParam(r, "resultID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
