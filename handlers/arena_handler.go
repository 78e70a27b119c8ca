package handlers

import (
	"net/http"

	"github.com/Dosada05/beach-tennis-live/services"
)

type ArenaHandler struct {
	arenaService services.ArenaService
}

func NewArenaHandler(as services.ArenaService) *ArenaHandler {
	return &ArenaHandler{arenaService: as}
}

func (h *ArenaHandler) CreateArena(w http.ResponseWriter, r *http.Request) {
	var input services.ArenaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arena, err := h.arenaService.CreateArena(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ArenaHandler) GetArena(w http.ResponseWriter, r *http.Request) {
	arena, err := h.arenaService.GetArena(r.Context(), pathParam(r, "arenaID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ArenaHandler) ListArenas(w http.ResponseWriter, r *http.Request) {
	arenas, err := h.arenaService.ListArenas(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arenas": arenas}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ArenaHandler) UpdateArena(w http.ResponseWriter, r *http.Request) {
	var input services.ArenaInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	arena, err := h.arenaService.UpdateArena(r.Context(), pathParam(r, "arenaID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"arena": arena}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *ArenaHandler) DeleteArena(w http.ResponseWriter, r *http.Request) {
	if err := h.arenaService.DeleteArena(r.Context(), pathParam(r, "arenaID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
