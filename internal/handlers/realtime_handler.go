package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/encoreline/backend/internal/realtime"
	"github.com/labstack/echo/v4"
)

// RealtimeHandler streams invalidation events to clients over SSE so
// badges and counts stay fresh across tabs without polling.
type RealtimeHandler struct {
	notifier *realtime.Notifier
}

// NewRealtimeHandler creates a new RealtimeHandler
func NewRealtimeHandler(notifier *realtime.Notifier) *RealtimeHandler {
	return &RealtimeHandler{notifier: notifier}
}

// RegisterRealtimeRoutes registers the SSE subscription route
func (h *RealtimeHandler) RegisterRealtimeRoutes(g *echo.Group) {
	g.GET("/realtime/subscribe", h.Subscribe)
}

// Subscribe opens an SSE stream of invalidation events for the caller,
// optionally narrowed with ?collections=follows,friend_requests. Events
// carry collection and user id only; the client re-queries on receipt.
func (h *RealtimeHandler) Subscribe(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	collections := realtime.ParseCollections(c.QueryParam("collections"))
	if len(collections) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No valid collections requested")
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set("Connection", "keep-alive")
	res.WriteHeader(http.StatusOK)
	res.Flush()

	// Buffered so a slow client drops events instead of blocking the
	// publisher; delivery is at-least-once and the client re-queries, so
	// a dropped event costs one refresh, not correctness.
	events := make(chan realtime.Event, 16)
	var subs []*realtime.Subscription
	for _, collection := range collections {
		sub := h.notifier.Subscribe(collection, currentUserID, func(e realtime.Event) {
			select {
			case events <- e:
			default:
			}
		})
		subs = append(subs, sub)
	}
	defer func() {
		for _, sub := range subs {
			h.notifier.Unsubscribe(sub)
		}
	}()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-events:
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(res, "data: %s\n\n", payload); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}
