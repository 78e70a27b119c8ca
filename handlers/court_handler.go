package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/services"
	"github.com/skip2/go-qrcode"
)

const defaultQRSize = 256

type CourtHandler struct {
	courtService  services.CourtService
	publicBaseURL string
}

func NewCourtHandler(cs services.CourtService, publicBaseURL string) *CourtHandler {
	return &CourtHandler{
		courtService:  cs,
		publicBaseURL: publicBaseURL,
	}
}

// courtView скрывает PIN на публичных маршрутах.
type courtView struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Status       models.CourtStatus `json:"status"`
	CurrentMatch *models.Match      `json:"currentMatch,omitempty"`
	TournamentID string             `json:"tournamentId"`
}

func publicCourts(courts []models.Court) []courtView {
	out := make([]courtView, 0, len(courts))
	for _, c := range courts {
		out = append(out, courtView{
			ID:           c.ID,
			Name:         c.Name,
			Status:       c.Status,
			CurrentMatch: c.CurrentMatch,
			TournamentID: c.TournamentID,
		})
	}
	return out
}

func (h *CourtHandler) CreateCourt(w http.ResponseWriter, r *http.Request) {
	var input services.CreateCourtInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	court, err := h.courtService.CreateCourt(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListCourts godoc
// @Summary      Courts of a tournament (admin view, PINs included)
// @Tags         courts
// @Produce      json
// @Param        tournamentId  query     string  false  "Tournament id"
// @Success      200           {object}  map[string]interface{}
// @Router       /admin/courts [get]
func (h *CourtHandler) ListCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.ListCourts(r.Context(), r.URL.Query().Get("tournamentId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListPublicCourts is the arena display read: same courts, no PINs.
func (h *CourtHandler) ListPublicCourts(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.ListCourts(r.Context(), r.URL.Query().Get("tournamentId"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": publicCourts(courts)}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) GetCourt(w http.ResponseWriter, r *http.Request) {
	court, err := h.courtService.GetCourt(r.Context(), pathParam(r, "courtID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *CourtHandler) DeleteCourt(w http.ResponseWriter, r *http.Request) {
	if err := h.courtService.DeleteCourt(r.Context(), pathParam(r, "courtID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RegeneratePin выдаёт новый PIN; старые привязки судей перестают работать.
func (h *CourtHandler) RegeneratePin(w http.ResponseWriter, r *http.Request) {
	h.respondCourt(w, r, func() (*models.Court, error) {
		return h.courtService.RegeneratePin(r.Context(), pathParam(r, "courtID"))
	})
}

func (h *CourtHandler) SetMaintenance(w http.ResponseWriter, r *http.Request) {
	h.respondCourt(w, r, func() (*models.Court, error) {
		return h.courtService.SetMaintenance(r.Context(), pathParam(r, "courtID"))
	})
}

func (h *CourtHandler) ClearMaintenance(w http.ResponseWriter, r *http.Request) {
	h.respondCourt(w, r, func() (*models.Court, error) {
		return h.courtService.ClearMaintenance(r.Context(), pathParam(r, "courtID"))
	})
}

func (h *CourtHandler) TogglePause(w http.ResponseWriter, r *http.Request) {
	h.respondCourt(w, r, func() (*models.Court, error) {
		return h.courtService.TogglePause(r.Context(), pathParam(r, "courtID"))
	})
}

func (h *CourtHandler) ResetScore(w http.ResponseWriter, r *http.Request) {
	h.respondCourt(w, r, func() (*models.Court, error) {
		return h.courtService.ResetScore(r.Context(), pathParam(r, "courtID"))
	})
}

// QRCode godoc
// @Summary      PNG QR code of the referee link with the court PIN
// @Tags         courts
// @Produce      png
// @Param        courtID  path   string  true   "Court id"
// @Param        size     query  int     false  "Edge in pixels"
// @Router       /admin/courts/{courtID}/qr [get]
func (h *CourtHandler) QRCode(w http.ResponseWriter, r *http.Request) {
	court, err := h.courtService.GetCourt(r.Context(), pathParam(r, "courtID"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 64 || n > 1024 {
			badRequestResponse(w, r, fmt.Errorf("size must be between 64 and 1024"))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(RefereeLink(h.publicBaseURL, court.Pin), qrcode.Medium, size)
	if err != nil {
		serverErrorResponse(w, r, fmt.Errorf("failed to encode QR code: %w", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// RefereeLink is the URL a referee opens to bind a device to the court.
func RefereeLink(publicBaseURL, pin string) string {
	return publicBaseURL + "/arbitro?pin=" + url.QueryEscape(pin)
}

func (h *CourtHandler) respondCourt(w http.ResponseWriter, r *http.Request, op func() (*models.Court, error)) {
	court, err := op()
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
