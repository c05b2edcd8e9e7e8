package handlers

import (
	"net/http"
	"strconv"

	"github.com/encoreline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// RelationEventHandler exposes the relation audit journal.
type RelationEventHandler struct {
	eventRepository repositories.RelationEventRepository
}

// NewRelationEventHandler creates a new RelationEventHandler
func NewRelationEventHandler(eventRepo repositories.RelationEventRepository) *RelationEventHandler {
	return &RelationEventHandler{eventRepository: eventRepo}
}

// RegisterRelationEventRoutes registers journal routes
func (h *RelationEventHandler) RegisterRelationEventRoutes(g *echo.Group) {
	g.GET("/relations/events", h.GetEvents)
}

// GetEvents lists the caller's relation history. direction=received swaps
// the filter from actor to subject.
func (h *RelationEventHandler) GetEvents(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)
	if skip < 0 {
		skip = 0
	}
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if limit < 1 || limit > 100 {
		limit = 50
	}

	ctx := c.Request().Context()
	if c.QueryParam("direction") == "received" {
		events, err := h.eventRepository.ListBySubject(ctx, currentUserID, skip, limit)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		return c.JSON(http.StatusOK, events)
	}

	events, err := h.eventRepository.ListByActor(ctx, currentUserID, skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, events)
}
