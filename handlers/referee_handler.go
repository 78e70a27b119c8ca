package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/middleware"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/services"
)

// RefereeHandler — маршруты устройства судьи, привязанного к корту по PIN.
type RefereeHandler struct {
	accessService services.AccessService
	courtService  services.CourtService
	matchService  services.MatchService
}

func NewRefereeHandler(as services.AccessService, cs services.CourtService, ms services.MatchService) *RefereeHandler {
	return &RefereeHandler{
		accessService: as,
		courtService:  cs,
		matchService:  ms,
	}
}

// Login godoc
// @Summary      Bind a referee device to the court holding the PIN
// @Tags         referee
// @Accept       json
// @Produce      json
// @Param        pin  body      object  true  "{\"pin\":\"1234\"}"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Failure      429  {object}  map[string]string
// @Router       /referee/login [post]
func (h *RefereeHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Pin string `json:"pin"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	binding, court, err := h.accessService.Bind(r.Context(), input.Pin)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	response := jsonResponse{
		"token":   binding.Token,
		"binding": binding,
		"court":   court,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RefereeHandler) Court(w http.ResponseWriter, r *http.Request) {
	court, err := middleware.GetCourtFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "court binding is missing")
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// Score godoc
// @Summary      Change a team's score on the bound court by delta
// @Tags         referee
// @Accept       json
// @Produce      json
// @Param        score  body      object  true  "{\"team\":\"A\",\"delta\":1}"
// @Success      200    {object}  map[string]interface{}
// @Router       /referee/score [post]
func (h *RefereeHandler) Score(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Team  models.ScoreSide `json:"team"`
		Delta int              `json:"delta"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Delta == 0 {
		badRequestResponse(w, r, errors.New("delta must not be zero"))
		return
	}
	if input.Delta > services.MaxScoreDelta || input.Delta < -services.MaxScoreDelta {
		badRequestResponse(w, r, fmt.Errorf("delta must be within ±%d", services.MaxScoreDelta))
		return
	}
	h.onBoundCourt(w, r, func(courtID string) (*models.Court, error) {
		return h.courtService.SetScore(r.Context(), courtID, input.Team, input.Delta)
	})
}

func (h *RefereeHandler) ResetScore(w http.ResponseWriter, r *http.Request) {
	h.onBoundCourt(w, r, func(courtID string) (*models.Court, error) {
		return h.courtService.ResetScore(r.Context(), courtID)
	})
}

func (h *RefereeHandler) TogglePause(w http.ResponseWriter, r *http.Request) {
	h.onBoundCourt(w, r, func(courtID string) (*models.Court, error) {
		return h.courtService.TogglePause(r.Context(), courtID)
	})
}

func (h *RefereeHandler) Finish(w http.ResponseWriter, r *http.Request) {
	binding, err := middleware.GetBindingFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "court binding is missing")
		return
	}
	finishMatch(w, r, h.matchService, binding.CourtID)
}

func (h *RefereeHandler) onBoundCourt(w http.ResponseWriter, r *http.Request, op func(courtID string) (*models.Court, error)) {
	binding, err := middleware.GetBindingFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "court binding is missing")
		return
	}
	court, err := op(binding.CourtID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
