package handlers

import (
	"log"
	"net/http"

	"github.com/encoreline/backend/internal/models"
	"github.com/encoreline/backend/internal/realtime"
	"github.com/encoreline/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FriendshipHandler handles HTTP requests related to friend requests and
// friendships.
type FriendshipHandler struct {
	requestRepository      repositories.FriendRequestRepository
	friendshipRepository   repositories.FriendshipRepository
	userRepository         repositories.UserRepository
	notificationRepository repositories.NotificationRepository
	eventRepository        repositories.RelationEventRepository
	notifier               *realtime.Notifier
}

// NewFriendshipHandler creates a new FriendshipHandler
func NewFriendshipHandler(
	requestRepo repositories.FriendRequestRepository,
	friendshipRepo repositories.FriendshipRepository,
	userRepo repositories.UserRepository,
	notifRepo repositories.NotificationRepository,
	eventRepo repositories.RelationEventRepository,
	notifier *realtime.Notifier,
) *FriendshipHandler {
	return &FriendshipHandler{
		requestRepository:      requestRepo,
		friendshipRepository:   friendshipRepo,
		userRepository:         userRepo,
		notificationRepository: notifRepo,
		eventRepository:        eventRepo,
		notifier:               notifier,
	}
}

// RegisterFriendshipRoutes registers friendship-related routes
func (h *FriendshipHandler) RegisterFriendshipRoutes(g *echo.Group) {
	g.POST("/friends/request", h.SendFriendRequest)
	g.GET("/friends/requests/pending", h.GetPendingFriendRequests)
	g.POST("/friends/request/:id/accept", h.AcceptFriendRequest)
	g.POST("/friends/request/:id/decline", h.DeclineFriendRequest)
	g.GET("/friends", h.GetFriends)
	g.DELETE("/friends/:id", h.DeleteFriend) // Unfriend
}

// SendFriendRequest handles sending a friend request. Sending to a user who
// previously declined reopens the request: the upsert resets the row to
// pending, which is the intended "ask again" behavior.
func (h *FriendshipHandler) SendFriendRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.CreateFriendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if _, err := h.userRepository.GetUserByID(req.ReceiverID); err != nil {
		return httpError(err)
	}

	friendRequest, err := h.requestRepository.Send(currentUserID, req.ReceiverID)
	if err != nil {
		return httpError(err)
	}

	if actor, aerr := h.userRepository.GetUserByID(currentUserID); aerr == nil {
		notif := &models.Notification{
			Type:        "friend_request",
			ActorID:     currentUserID,
			RecipientID: req.ReceiverID,
			Message:     actor.DisplayName + " sent you a friend request",
		}
		if nerr := h.notificationRepository.CreateNotification(notif); nerr != nil {
			log.Printf("failed to create friend request notification: %v", nerr)
		}
	}

	h.journal(c, models.RelationEventRequestSent, currentUserID, req.ReceiverID)
	h.invalidate(c, realtime.CollectionFriendRequests, req.ReceiverID, currentUserID)

	return c.JSON(http.StatusCreated, friendRequest)
}

// GetPendingFriendRequests retrieves pending friend requests for the
// authenticated user, sender profiles preloaded for the request sheet.
func (h *FriendshipHandler) GetPendingFriendRequests(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requests, err := h.requestRepository.ListPendingFor(currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, echo.Map{"requests": requests, "count": len(requests)})
}

// AcceptFriendRequest accepts a pending request addressed to the caller.
// The status flips to accepted before the friendship rows are written, so
// a crash mid-way leaves the request terminal and the friendship pending
// propagation rather than a reopenable request. Accepting an already
// accepted request reconciles the friendship rows again, which is what
// repairs that crash window; a declined request is a silent no-op.
func (h *FriendshipHandler) AcceptFriendRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	friendRequest, err := h.requestRepository.GetByID(requestID)
	if err != nil {
		if isRecordNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Friend request not found")
		}
		return httpError(err)
	}

	if friendRequest.ReceiverID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this friend request")
	}

	changed, err := h.requestRepository.UpdateStatusIfPending(requestID, models.FriendRequestAccepted)
	if err != nil {
		return httpError(err)
	}
	if !changed {
		if friendRequest.Status != models.FriendRequestAccepted {
			return c.JSON(http.StatusOK, echo.Map{"status": friendRequest.Status})
		}
		// Retry of an already accepted request: re-run the idempotent
		// reconcile so rows a crash or rejected mirror left missing get
		// written, without repeating the notification or journal entry.
		if err := h.friendshipRepository.Reconcile(friendRequest.SenderID, friendRequest.ReceiverID); err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		h.invalidate(c, realtime.CollectionFriendships, friendRequest.SenderID, friendRequest.ReceiverID)
		return c.JSON(http.StatusOK, echo.Map{"status": models.FriendRequestAccepted})
	}

	if err := h.friendshipRepository.Reconcile(friendRequest.SenderID, friendRequest.ReceiverID); err != nil {
		// The request stays accepted; the next accept or a retry repairs
		// the friendship rows. Callers see one failure message.
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if actor, aerr := h.userRepository.GetUserByID(currentUserID); aerr == nil {
		notif := &models.Notification{
			Type:        "friend_accept",
			ActorID:     currentUserID,
			RecipientID: friendRequest.SenderID,
			Message:     actor.DisplayName + " accepted your friend request",
		}
		if nerr := h.notificationRepository.CreateNotification(notif); nerr != nil {
			log.Printf("failed to create friend accept notification: %v", nerr)
		}
	}

	h.journal(c, models.RelationEventRequestAccept, currentUserID, friendRequest.SenderID)
	h.invalidate(c, realtime.CollectionFriendRequests, friendRequest.ReceiverID, friendRequest.SenderID)
	h.invalidate(c, realtime.CollectionFriendships, friendRequest.SenderID, friendRequest.ReceiverID)

	return c.JSON(http.StatusOK, echo.Map{"status": models.FriendRequestAccepted})
}

// DeclineFriendRequest declines a pending request addressed to the caller.
// Declining an already terminal request is a silent no-op.
func (h *FriendshipHandler) DeclineFriendRequest(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	requestID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	friendRequest, err := h.requestRepository.GetByID(requestID)
	if err != nil {
		if isRecordNotFound(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Friend request not found")
		}
		return httpError(err)
	}

	if friendRequest.ReceiverID != currentUserID {
		return echo.NewHTTPError(http.StatusForbidden, "You are not authorized to modify this friend request")
	}

	changed, err := h.requestRepository.UpdateStatusIfPending(requestID, models.FriendRequestDeclined)
	if err != nil {
		return httpError(err)
	}
	if !changed {
		return c.JSON(http.StatusOK, echo.Map{"status": friendRequest.Status})
	}

	h.journal(c, models.RelationEventRequestDecl, currentUserID, friendRequest.SenderID)
	h.invalidate(c, realtime.CollectionFriendRequests, friendRequest.ReceiverID, friendRequest.SenderID)

	return c.JSON(http.StatusOK, echo.Map{"status": models.FriendRequestDeclined})
}

// GetFriends retrieves the list of friends for the authenticated user
func (h *FriendshipHandler) GetFriends(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	friends, err := h.friendshipRepository.ListFriends(currentUserID)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, friends)
}

// DeleteFriend handles unfriending: both mirrored friendship rows and the
// originating request row are removed so a later request starts clean.
func (h *FriendshipHandler) DeleteFriend(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	friendUserID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	areFriends, err := h.friendshipRepository.AreFriends(currentUserID, friendUserID)
	if err != nil {
		return httpError(err)
	}
	if !areFriends {
		// Check the mirror too: a one-sided friendship still unfriends.
		areFriends, err = h.friendshipRepository.AreFriends(friendUserID, currentUserID)
		if err != nil {
			return httpError(err)
		}
	}
	if !areFriends {
		return echo.NewHTTPError(http.StatusNotFound, "Friendship not found")
	}

	if err := h.friendshipRepository.DeleteBoth(currentUserID, friendUserID); err != nil {
		return httpError(err)
	}
	if err := h.requestRepository.DeleteBetween(currentUserID, friendUserID); err != nil {
		log.Printf("failed to delete request rows on unfriend: %v", err)
	}

	h.journal(c, models.RelationEventUnfriend, currentUserID, friendUserID)
	h.invalidate(c, realtime.CollectionFriendships, currentUserID, friendUserID)

	return c.NoContent(http.StatusNoContent)
}

func (h *FriendshipHandler) journal(c echo.Context, eventType string, actorID, subjectID uint) {
	event := &models.RelationEvent{Type: eventType, ActorID: actorID, SubjectID: subjectID}
	if err := h.eventRepository.Append(c.Request().Context(), event); err != nil {
		log.Printf("failed to journal %s event: %v", eventType, err)
	}
}

func (h *FriendshipHandler) invalidate(c echo.Context, collection string, userIDs ...uint) {
	ctx := c.Request().Context()
	for _, userID := range userIDs {
		if err := h.notifier.Publish(ctx, collection, userID); err != nil {
			log.Printf("failed to publish %s invalidation: %v", collection, err)
		}
	}
}
