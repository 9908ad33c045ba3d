package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/worklane/timesheet-api/internal/models"
	appErrors "github.com/worklane/timesheet-api/pkg/errors"
	"github.com/worklane/timesheet-api/pkg/response"
)

type conversationRegistrar interface {
	Upsert(ctx context.Context, ref *models.ConversationReference) error
}

// NotificationHandler records the Teams conversation reference the bot
// reports when a user first opens it. Without a reference the user
// simply receives no proactive messages.
type NotificationHandler struct {
	conversations conversationRegistrar
}

// NewNotificationHandler creates a new handler.
func NewNotificationHandler(conversations conversationRegistrar) *NotificationHandler {
	return &NotificationHandler{conversations: conversations}
}

// RegisterConversation godoc
// @Summary Register the caller's Teams conversation reference
// @Tags Notifications
// @Accept json
// @Produce json
// @Param payload body models.ConversationReference true "Conversation reference"
// @Success 204 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /notifications/conversation [post]
func (h *NotificationHandler) RegisterConversation(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var payload struct {
		ConversationID string `json:"conversation_id" binding:"required"`
		ServiceURL     string `json:"service_url" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid conversation payload"))
		return
	}

	ref := models.ConversationReference{
		UserID:         claims.UserID,
		ConversationID: payload.ConversationID,
		ServiceURL:     payload.ServiceURL,
	}
	if err := h.conversations.Upsert(c.Request.Context(), &ref); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
