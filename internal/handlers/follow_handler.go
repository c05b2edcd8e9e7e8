package handlers

import (
	"log"
	"net/http"

	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository       repositories.FollowRepository
	userRepository         repositories.UserRepository
	countRepository        repositories.CountRepository
	notificationRepository repositories.NotificationRepository
	eventRepository        repositories.RelationEventRepository
	notifier               *realtime.Notifier
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(
	followRepo repositories.FollowRepository,
	userRepo repositories.UserRepository,
	countRepo repositories.CountRepository,
	notifRepo repositories.NotificationRepository,
	eventRepo repositories.RelationEventRepository,
	notifier *realtime.Notifier,
) *FollowHandler {
	return &FollowHandler{
		followRepository:       followRepo,
		userRepository:         userRepo,
		countRepository:        countRepo,
		notificationRepository: notifRepo,
		eventRepository:        eventRepo,
		notifier:               notifier,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
	g.GET("/users/:id/followers", h.GetFollowers)
	g.GET("/users/:id/following", h.GetFollowing)
	g.GET("/users/:id/follow-status", h.GetFollowStatus)
	g.GET("/users/:id/counts", h.GetCounts)
}

// FollowUser follows a user. Following someone already followed succeeds
// without touching counters a second time.
func (h *FollowHandler) FollowUser(c echo.Context) error {
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

	created, err := h.followRepository.Follow(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	if created {
		if err := h.userRepository.IncrementFollowingCount(currentUserID); err != nil {
			log.Printf("failed to bump following count for %d: %v", currentUserID, err)
		}
		if err := h.userRepository.IncrementFollowersCount(targetID); err != nil {
			log.Printf("failed to bump followers count for %d: %v", targetID, err)
		}

		if actor, aerr := h.userRepository.GetUserByID(currentUserID); aerr == nil {
			notif := &models.Notification{
				Type:        "follow",
				ActorID:     currentUserID,
				RecipientID: targetID,
				Message:     actor.DisplayName + " started following you",
			}
			if nerr := h.notificationRepository.CreateNotification(notif); nerr != nil {
				log.Printf("failed to create follow notification: %v", nerr)
			}
		}

		h.journal(c, models.RelationEventFollow, currentUserID, targetID)
		h.invalidateFollows(c, currentUserID, targetID)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user; unfollowing someone not followed is a no-op.
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	removed, err := h.followRepository.Unfollow(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}

	if removed {
		if err := h.userRepository.DecrementFollowingCount(currentUserID); err != nil {
			log.Printf("failed to drop following count for %d: %v", currentUserID, err)
		}
		if err := h.userRepository.DecrementFollowersCount(targetID); err != nil {
			log.Printf("failed to drop followers count for %d: %v", targetID, err)
		}

		h.journal(c, models.RelationEventUnfollow, currentUserID, targetID)
		h.invalidateFollows(c, currentUserID, targetID)
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}

// GetFollowers lists the users following :id.
func (h *FollowHandler) GetFollowers(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	followers, err := h.followRepository.GetFollowers(userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, followers)
}

// GetFollowing lists the users :id follows.
func (h *FollowHandler) GetFollowing(c echo.Context) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	following, err := h.followRepository.GetFollowing(userID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, following)
}

// GetFollowStatus reports whether the caller follows :id.
func (h *FollowHandler) GetFollowStatus(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	targetID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	following, err := h.followRepository.IsFollowing(currentUserID, targetID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{"following": following})
}

// GetCounts returns the aggregate relation counts for :id. The pending
// request count is only reported to the user it belongs to.
func (h *FollowHandler) GetCounts(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	ctx := c.Request().Context()
	followers, err := h.countRepository.FollowerCount(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	following, err := h.countRepository.FollowingCount(ctx, userID)
	if err != nil {
		return httpError(err)
	}
	friends, err := h.countRepository.FriendCount(ctx, userID)
	if err != nil {
		return httpError(err)
	}

	counts := echo.Map{
		"followers": followers,
		"following": following,
		"friends":   friends,
	}
	if currentUserID == userID {
		pending, err := h.countRepository.PendingRequestCount(ctx, userID)
		if err != nil {
			return httpError(err)
		}
		counts["pending_requests"] = pending
	}

	return c.JSON(http.StatusOK, counts)
}

func (h *FollowHandler) journal(c echo.Context, eventType string, actorID, subjectID uint) {
	event := &models.RelationEvent{Type: eventType, ActorID: actorID, SubjectID: subjectID}
	if err := h.eventRepository.Append(c.Request().Context(), event); err != nil {
		log.Printf("failed to journal %s event: %v", eventType, err)
	}
}

// invalidateFollows tells both sides of the edge to re-read. Events carry
// no payload on purpose; clients re-query counts and lists.
func (h *FollowHandler) invalidateFollows(c echo.Context, followerID, followingID uint) {
	ctx := c.Request().Context()
	if err := h.notifier.Publish(ctx, realtime.CollectionFollows, followerID); err != nil {
		log.Printf("failed to publish follows invalidation: %v", err)
	}
	if err := h.notifier.Publish(ctx, realtime.CollectionFollows, followingID); err != nil {
		log.Printf("failed to publish follows invalidation: %v", err)
	}
}
