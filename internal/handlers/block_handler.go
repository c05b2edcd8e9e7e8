package handlers

import (
	"log"
	"net/http"

	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// BlockHandler handles block/unblock HTTP requests. Blocking never
// retracts existing follows, requests, or friendships; the UI consults
// block status when rendering.
type BlockHandler struct {
	blockRepository repositories.BlockRepository
	userRepository  repositories.UserRepository
	eventRepository repositories.RelationEventRepository
	notifier        *realtime.Notifier
}

// NewBlockHandler creates a new BlockHandler
func NewBlockHandler(
	blockRepo repositories.BlockRepository,
	userRepo repositories.UserRepository,
	eventRepo repositories.RelationEventRepository,
	notifier *realtime.Notifier,
) *BlockHandler {
	return &BlockHandler{
		blockRepository: blockRepo,
		userRepository:  userRepo,
		eventRepository: eventRepo,
		notifier:        notifier,
	}
}

// RegisterBlockRoutes registers block-related routes
func (h *BlockHandler) RegisterBlockRoutes(g *echo.Group) {
	g.POST("/users/:id/block", h.BlockUser)
	g.DELETE("/users/:id/block", h.UnblockUser)
	g.GET("/users/:id/block-status", h.GetBlockStatus)
	g.GET("/users/blocked", h.GetBlockedUsers)
}

// BlockUser blocks a user; blocking someone already blocked succeeds.
func (h *BlockHandler) BlockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	if _, err := h.userRepository.GetUserByID(targetID); err != nil {
		return httpError(err)
	}

	created, err := h.blockRepository.Block(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	if created {
		h.journal(c, models.RelationEventBlock, currentUserID, targetID)
		if perr := h.notifier.Publish(c.Request().Context(), realtime.CollectionBlocks, currentUserID); perr != nil {
			log.Printf("failed to publish blocks invalidation: %v", perr)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"blocked": true}})
}

// UnblockUser removes the block; unblocking a non-blocked user is a no-op.
func (h *BlockHandler) UnblockUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	removed, err := h.blockRepository.Unblock(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	if removed {
		h.journal(c, models.RelationEventUnblock, currentUserID, targetID)
		if perr := h.notifier.Publish(c.Request().Context(), realtime.CollectionBlocks, currentUserID); perr != nil {
			log.Printf("failed to publish blocks invalidation: %v", perr)
		}
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"blocked": false}})
}

// GetBlockStatus reports both directions so the UI can decide what to hide.
func (h *BlockHandler) GetBlockStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	blocked, err := h.blockRepository.IsBlocked(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}
	blockedBy, err := h.blockRepository.IsBlockedBy(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"blocked": blocked, "blocked_by": blockedBy})
}

// GetBlockedUsers lists the users the caller has blocked.
func (h *BlockHandler) GetBlockedUsers(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	users, err := h.blockRepository.ListBlocked(currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, users)
}

func (h *BlockHandler) journal(c echo.Context, eventType string, actorID, subjectID uint) {
	event := &models.RelationEvent{Type: eventType, ActorID: actorID, SubjectID: subjectID}
	if err := h.eventRepository.Append(c.Request().Context(), event); err != nil {
		log.Printf("failed to journal %s event: %v", eventType, err)
	}
}
