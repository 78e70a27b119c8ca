package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{tournamentService: ts}
}

// CreateTournament godoc
// @Summary      Create a tournament, optionally cloning the courts of an arena
// @Tags         tournaments
// @Accept       json
// @Produce      json
// @Param        tournament  body      services.CreateTournamentInput  true  "Tournament"
// @Success      201         {object}  services.TournamentCreation
// @Success      207         {object}  map[string]interface{}  "tournament created, some courts failed"
// @Router       /tournaments [post]
func (h *TournamentHandler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.CreateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	creation, err := h.tournamentService.CreateTournament(r.Context(), input)
	if err != nil {
		if creation != nil && errors.Is(err, services.ErrPartialWrite) {
			partialWriteResponse(w, r, jsonResponse{
				"tournament": creation.Tournament,
				"courts":     creation.Courts,
			}, err)
			return
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	response := jsonResponse{
		"tournament": creation.Tournament,
		"courts":     creation.Courts,
	}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetTournament(w http.ResponseWriter, r *http.Request) {
	tournament, err := h.tournamentService.GetTournament(r.Context(), pathParam(r, "tournamentID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListTournaments godoc
// @Summary      List tournaments, newest first; ?location= lists earlier editions at a venue
// @Tags         tournaments
// @Produce      json
// @Param        location  query     string  false  "Venue"
// @Success      200       {object}  map[string]interface{}
// @Router       /tournaments [get]
func (h *TournamentHandler) ListTournaments(w http.ResponseWriter, r *http.Request) {
	var (
		tournaments []models.Tournament
		err         error
	)
	if location := r.URL.Query().Get("location"); location != "" {
		tournaments, err = h.tournamentService.PreviousAtLocation(r.Context(), location)
	} else {
		tournaments, err = h.tournamentService.ListTournaments(r.Context())
	}
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) UpdateTournament(w http.ResponseWriter, r *http.Request) {
	var input services.UpdateTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.UpdateTournament(r.Context(), pathParam(r, "tournamentID"), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) UpdateTournamentStatus(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Status models.TournamentStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	tournament, err := h.tournamentService.UpdateTournamentStatus(r.Context(), pathParam(r, "tournamentID"), input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) DeleteTournament(w http.ResponseWriter, r *http.Request) {
	if err := h.tournamentService.DeleteTournament(r.Context(), pathParam(r, "tournamentID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
