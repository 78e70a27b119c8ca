package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/services"
)

type MatchHandler struct {
	matchService services.MatchService
}

func NewMatchHandler(ms services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: ms}
}

func (h *MatchHandler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.CreateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.CreateMatch(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.matchService.GetMatch(r.Context(), pathParam(r, "matchID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	tournamentID := r.URL.Query().Get("tournamentId")
	if tournamentID == "" {
		badRequestResponse(w, r, errors.New("tournamentId query parameter is required"))
		return
	}
	matches, err := h.matchService.ListMatchesByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateMatchInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.UpdateMatch(r.Context(), pathParam(r, "matchID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *MatchHandler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.matchService.DeleteMatch(r.Context(), pathParam(r, "matchID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartMatch godoc
// @Summary      Put a planned match on a free court
// @Tags         matches
// @Accept       json
// @Produce      json
// @Param        matchID  path      string  true  "Match id"
// @Success      200      {object}  map[string]interface{}
// @Failure      409      {object}  map[string]string
// @Router       /admin/matches/{matchID}/start [post]
func (h *MatchHandler) StartMatch(w http.ResponseWriter, r *http.Request) {
	var input struct {
		CourtID string `json:"courtId"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.CourtID == "" {
		badRequestResponse(w, r, errors.New("courtId is required"))
		return
	}
	court, err := h.matchService.StartMatch(r.Context(), pathParam(r, "matchID"), input.CourtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// FinishCourtMatch closes the match being played on {courtID}.
func (h *MatchHandler) FinishCourtMatch(w http.ResponseWriter, r *http.Request) {
	finishMatch(w, r, h.matchService, pathParam(r, "courtID"))
}

func finishMatch(w http.ResponseWriter, r *http.Request, ms services.MatchService, courtID string) {
	result, err := ms.FinishMatch(r.Context(), courtID)
	if err != nil {
		if result != nil && errors.Is(err, services.ErrPartialWrite) {
			partialWriteResponse(w, r, jsonResponse{"result": result}, err)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
