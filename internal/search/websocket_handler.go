package search

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/yegors/flightfinder/internal/websocket"
	"github.com/yegors/flightfinder/pkg/logger"
)

const wsSearchTimeout = 2 * time.Second

// WebSocketHandler answers search_query messages from live search clients
type WebSocketHandler struct {
	service *Service
	logger  *logger.Logger
}

// NewWebSocketHandler creates a new WebSocket message handler
func NewWebSocketHandler(service *Service, log *logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		service: service,
		logger:  log.Named("search-ws"),
	}
}

// HandleMessage handles incoming WebSocket messages
func (h *WebSocketHandler) HandleMessage(client *websocket.Client, messageType string, data map[string]any) error {
	switch messageType {
	case websocket.MessageTypeSearchQuery:
		return h.handleSearchQuery(client, data)
	default:
		h.logger.Debug("Unhandled message type", logger.String("type", messageType))
		client.SendMessage(websocket.ErrorMessage(data["seq"], "unsupported message type: "+messageType))
		return nil
	}
}

// handleSearchQuery resolves one keystroke's worth of input and replies to the sender only.
// The client's seq value is echoed so stale replies can be discarded.
func (h *WebSocketHandler) handleSearchQuery(client *websocket.Client, data map[string]any) error {
	seq := data["seq"]

	req, err := requestFromMessage(data)
	if err != nil {
		client.SendMessage(websocket.ErrorMessage(seq, err.Error()))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), wsSearchTimeout)
	defer cancel()

	result, err := h.service.Search(ctx, req)
	if err != nil {
		client.SendMessage(websocket.ErrorMessage(seq, err.Error()))
		return fmt.Errorf("failed to search: %w", err)
	}

	reply := &websocket.Message{
		Type: websocket.MessageTypeSearchResult,
		Data: map[string]any{
			"seq":    seq,
			"result": result,
		},
	}
	if !client.SendMessage(reply) {
		h.logger.Debug("Dropped search result for slow or closed client")
	}
	return nil
}

func requestFromMessage(data map[string]any) (Request, error) {
	var req Request

	q, ok := data["query"].(string)
	if !ok {
		return req, fmt.Errorf("query must be a string")
	}
	req.Query = q

	if limit, ok := data["limit"].(float64); ok && limit > 0 {
		req.Limit = int(math.Min(limit, MaxLimit))
	}

	lat, latOK := data["lat"].(float64)
	lon, lonOK := data["lon"].(float64)
	if latOK && lonOK {
		req.Position = &Position{Lat: lat, Lon: lon}
	}

	return req, nil
}
