package api

import (
	"context"
	"net/http"

	"communities/messages/internal/authz"
	"communities/messages/internal/models"
	"communities/messages/internal/service"
	"communities/messages/pkg/errors"
	"communities/messages/pkg/logger"
	"communities/messages/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

const channelParam = "channel_id"

type attachmentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type createMessageRequest struct {
	ChannelID        string              `json:"channel_id" binding:"required"`
	Content          string              `json:"content"`
	ReplyToMessageID *string             `json:"reply_to_message_id"`
	Attachments      []attachmentRequest `json:"attachments" binding:"omitempty,dive"`
}

type updateMessageRequest struct {
	Content  *string `json:"content"`
	IsPinned *bool   `json:"is_pinned"`
}

type pageQuery struct {
	Page  int64 `form:"page"`
	Limit int64 `form:"limit"`
}

func (q pageQuery) pagination() models.Pagination {
	return models.Pagination{Page: q.Page, Limit: q.Limit}
}

type searchQuery struct {
	pageQuery
	Query string `form:"q"`
}

// MessageHandler serves the message routes. Every route expects an authenticated caller.
type MessageHandler struct {
	messages   *service.MessageService
	authorizer authz.Authorizer
}

func NewMessageHandler(messages *service.MessageService, authorizer authz.Authorizer) *MessageHandler {
	return &MessageHandler{messages: messages, authorizer: authorizer}
}

// RegisterRoutes registers the message routes on an authenticated group
func (h *MessageHandler) RegisterRoutes(rg gin.IRouter) {
	messages := rg.Group("/messages")
	{
		messages.POST("", h.CreateMessage)
		messages.GET("/:id", h.GetMessage)
		messages.PUT("/:id", h.UpdateMessage)
		messages.DELETE("/:id", h.DeleteMessage)
		messages.PUT("/:id/pin", h.PinMessage)
	}

	channels := rg.Group("/channels/:" + channelParam)
	channels.Use(middleware.RequireChannelPermission(h.authorizer, authz.ViewChannels, channelParam))
	{
		channels.GET("/messages", h.ListMessages)
		channels.GET("/pins", h.ListPinnedMessages)
		channels.GET("/search", h.SearchMessages)
	}
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("invalid_request", "Invalid request body"))
		return
	}

	channelID, err := models.ParseChannelID(req.ChannelID)
	if err != nil {
		invalidID(c, "channel")
		return
	}

	var replyTo *models.MessageID
	if req.ReplyToMessageID != nil {
		id, err := models.ParseMessageID(*req.ReplyToMessageID)
		if err != nil {
			invalidID(c, "reply-to message")
			return
		}
		replyTo = &id
	}

	if appErr := middleware.Authorize(c, h.authorizer, authz.SendMessages, authz.Channel(channelID.UUID)); appErr != nil {
		c.Error(appErr)
		return
	}

	caller, _ := middleware.UserIDFromContext(c)
	m, err := h.messages.CreateMessage(c.Request.Context(), models.CreateMessageInput{
		ChannelID:        channelID,
		AuthorID:         models.AuthorID{UUID: caller},
		Content:          req.Content,
		ReplyToMessageID: replyTo,
		Attachments: lo.Map(req.Attachments, func(a attachmentRequest, _ int) models.NewAttachment {
			return models.NewAttachment{Name: a.Name, URL: a.URL}
		}),
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, m)
}

func (h *MessageHandler) GetMessage(c *gin.Context) {
	m, ok := h.loadMessage(c)
	if !ok {
		return
	}

	if appErr := middleware.Authorize(c, h.authorizer, authz.ViewChannels, authz.Channel(m.ChannelID.UUID)); appErr != nil {
		c.Error(appErr)
		return
	}

	c.JSON(http.StatusOK, m)
}

// UpdateMessage is restricted to the message author
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	var req updateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError("invalid_request", "Invalid request body"))
		return
	}

	m, ok := h.loadMessage(c)
	if !ok || !h.requireAuthor(c, m) {
		return
	}

	updated, err := h.messages.UpdateMessage(c.Request.Context(), m.ID, models.UpdateMessageInput{
		Content:  req.Content,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteMessage is restricted to the message author
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	m, ok := h.loadMessage(c)
	if !ok || !h.requireAuthor(c, m) {
		return
	}

	if err := h.messages.DeleteMessage(c.Request.Context(), m.ID); err != nil {
		fail(c, err)
		return
	}

	logger.FromContext(c).Info("Message deleted", "message_id", m.ID.String())
	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) PinMessage(c *gin.Context) {
	m, ok := h.loadMessage(c)
	if !ok {
		return
	}

	if appErr := middleware.Authorize(c, h.authorizer, authz.ManageMessages, authz.Channel(m.ChannelID.UUID)); appErr != nil {
		c.Error(appErr)
		return
	}

	if err := h.messages.PinMessage(c.Request.Context(), m.ID); err != nil {
		fail(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *MessageHandler) ListMessages(c *gin.Context) {
	h.listMessages(c, h.messages.ListMessages)
}

func (h *MessageHandler) ListPinnedMessages(c *gin.Context) {
	h.listMessages(c, h.messages.ListPinnedMessages)
}

type listFunc func(ctx context.Context, channelID models.ChannelID, page models.Pagination) (*models.Paginated[models.Message], error)

func (h *MessageHandler) listMessages(c *gin.Context, list listFunc) {
	channelID, err := models.ParseChannelID(c.Param(channelParam))
	if err != nil {
		invalidID(c, "channel")
		return
	}

	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errors.NewBadRequestError("invalid_request", "Invalid pagination parameters"))
		return
	}

	page, err := list(c.Request.Context(), channelID, q.pagination())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

func (h *MessageHandler) SearchMessages(c *gin.Context) {
	channelID, err := models.ParseChannelID(c.Param(channelParam))
	if err != nil {
		invalidID(c, "channel")
		return
	}

	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.Error(errors.NewBadRequestError("invalid_request", "Invalid search parameters"))
		return
	}

	results, err := h.messages.SearchMessages(c.Request.Context(), channelID, q.Query, q.pagination())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *MessageHandler) loadMessage(c *gin.Context) (*models.Message, bool) {
	id, err := models.ParseMessageID(c.Param("id"))
	if err != nil {
		invalidID(c, "message")
		return nil, false
	}

	m, err := h.messages.GetMessage(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return m, true
}

func (h *MessageHandler) requireAuthor(c *gin.Context, m *models.Message) bool {
	caller, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("auth_required", "Authentication required"))
		return false
	}
	if caller == uuid.Nil || caller != m.AuthorID.UUID {
		c.Error(errors.NewForbiddenError("not_author", "Only the author can modify this message"))
		return false
	}
	return true
}
