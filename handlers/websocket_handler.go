package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Dosada05/beach-tennis-live/live"
	"github.com/Dosada05/beach-tennis-live/models"
	"github.com/Dosada05/beach-tennis-live/repositories"
	"github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler accepts connections from allowedOrigins; "*" allows any.
func NewWebSocketHandler(hub *live.Hub, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
	}
}

// ServeWs godoc
// @Summary      Live snapshots of a collection over WebSocket
// @Tags         live
// @Param        collection    path   string  true   "courts, matches, results, tournaments, arenas, players"
// @Param        tournamentId  query  string  false  "Only records of this tournament"
// @Router       /ws/{collection} [get]
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	coll := models.Collection(pathParam(r, "collection"))
	if !coll.Valid() {
		notFoundResponse(w, r, "unknown collection")
		return
	}
	var filter *repositories.Filter
	if tournamentID := r.URL.Query().Get("tournamentId"); tournamentID != "" && coll != models.CollectionPlayers && coll != models.CollectionArenas {
		filter = repositories.Where("tournamentId", tournamentID)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		h.logger.Warn("websocket upgrade failed", slog.String("collection", string(coll)), slog.Any("error", err))
		return
	}

	room := string(coll)
	if filter != nil {
		room += ":" + filter.Value
	}
	client := live.NewClient(conn, room, h.logger)

	// Контекст запроса завершается вместе с обработчиком, подписке нужен свой.
	ctx, cancel := context.WithCancel(context.Background())
	unsubscribe, err := h.hub.Subscribe(ctx, coll, filter, client.Push)
	if err != nil {
		cancel()
		h.logger.Error("websocket subscribe failed", slog.String("room", room), slog.Any("error", err))
		_ = conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"))
		conn.Close()
		return
	}
	client.Attach(func() {
		unsubscribe()
		cancel()
	})

	go client.WritePump()
	go client.ReadPump()
	h.logger.Debug("websocket client subscribed", slog.String("room", room))
}
