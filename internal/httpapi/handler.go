// Package httpapi exposes the chat engine to the widget over HTTP.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/attachment"
	"github.com/momocall/shopchat/internal/autoresponder"
	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/conversation"
	"github.com/momocall/shopchat/internal/feed"
	"github.com/momocall/shopchat/internal/feedback"
)

// Handler serves the widget API. Conversations are opened on first use and
// held until Close.
type Handler struct {
	docs     feed.DocStore
	blobs    feed.BlobStore
	rules    *autoresponder.Rules
	shopName string
	bus      *bus.Bus
	logger   *zap.Logger

	mu   sync.Mutex
	open map[string]*session
}

// session bundles the per-conversation engine components.
type session struct {
	store     *conversation.Store
	responder *autoresponder.Responder
	tracker   *feedback.Tracker
	pipeline  *attachment.Pipeline
}

// New creates the handler. bus and logger may be nil.
func New(docs feed.DocStore, blobs feed.BlobStore, rules *autoresponder.Rules, shopName string, b *bus.Bus, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		docs:     docs,
		blobs:    blobs,
		rules:    rules,
		shopName: shopName,
		bus:      b,
		logger:   logger,
		open:     make(map[string]*session),
	}
}

// Register mounts the widget routes.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/v1/conversations/:shop_id/messages", h.GetMessages)
	e.POST("/v1/conversations/:shop_id/messages", h.SendMessage)
	e.POST("/v1/conversations/:shop_id/quick-replies", h.SelectQuickReply)
	e.POST("/v1/conversations/:shop_id/messages/:message_id/feedback", h.SetFeedback)
	e.POST("/v1/conversations/:shop_id/attachments", h.UploadAttachment)
	e.DELETE("/v1/conversations/:shop_id", h.CloseConversation)
}

// session opens the shop's conversation on first use and seeds the welcome
// banner and quick-reply menu.
func (h *Handler) session(c echo.Context, shopID string) (*session, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if s, ok := h.open[shopID]; ok {
		return s, nil
	}

	store := conversation.New(h.docs, h.bus, h.logger)
	if err := store.Open(shopID, nil); err != nil {
		return nil, err
	}
	if err := store.SeedWelcome(c.Request().Context(), h.shopName, h.rules.QuickReplyLabels()); err != nil {
		h.logger.Error("welcome seeding failed", zap.String("shop_id", shopID), zap.Error(err))
	}

	channel := store.Channel()
	s := &session{
		store:     store,
		responder: autoresponder.NewResponder(channel, h.rules, h.bus, h.logger),
		tracker:   feedback.NewTracker(store, h.bus, h.logger),
		pipeline:  attachment.NewPipeline(channel, h.blobs, h.bus, h.logger),
	}
	h.open[shopID] = s
	return s, nil
}

// CloseAll closes every open conversation. Called on daemon shutdown.
func (h *Handler) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.open {
		s.store.Close()
		delete(h.open, id)
	}
}

// messageDTO is the API shape of one transcript entry.
type messageDTO struct {
	ID               string `json:"id"`
	Content          string `json:"content"`
	CreatedTime      int64  `json:"created_time"`
	From             string `json:"from"`
	IsQuickReplyMenu bool   `json:"is_quick_reply_menu,omitempty"`
	Feedback         string `json:"feedback,omitempty"`
	IsImage          bool   `json:"is_image,omitempty"`
	ShowUseful       bool   `json:"show_useful"`
	ShowNotUseful    bool   `json:"show_not_useful"`
	ShowSeparator    bool   `json:"show_separator"`
}

func toDTO(m chat.Message) messageDTO {
	v := feedback.ControlVisibility(m)
	return messageDTO{
		ID:               m.ID,
		Content:          m.Content,
		CreatedTime:      m.CreatedAt,
		From:             string(m.Sender),
		IsQuickReplyMenu: m.IsQuickReplyMenu,
		Feedback:         string(m.Feedback),
		IsImage:          chat.IsImageContent(m.Content),
		ShowUseful:       v.ShowUseful,
		ShowNotUseful:    v.ShowNotUseful,
		ShowSeparator:    v.ShowSeparator,
	}
}

// GetMessages returns the current ordered transcript.
// GET /v1/conversations/:shop_id/messages
func (h *Handler) GetMessages(c echo.Context) error {
	s, err := h.session(c, c.Param("shop_id"))
	if err != nil {
		h.logger.Error("open conversation failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}

	msgs := s.store.Messages()
	dtos := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		dtos = append(dtos, toDTO(m))
	}
	return c.JSON(http.StatusOK, map[string]any{
		"messages":      dtos,
		"quick_replies": h.rules.QuickReplyLabels(),
	})
}

// SendMessage composes a user message and its canned reply.
// POST /v1/conversations/:shop_id/messages
func (h *Handler) SendMessage(c echo.Context) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}

	s, err := h.session(c, c.Param("shop_id"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}

	saga, err := s.responder.ComposeUserMessage(c.Request().Context(), req.Text)
	if errors.Is(err, autoresponder.ErrEmptyMessage) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "empty message"})
	}
	if err != nil {
		// Completed writes stay; report how far the saga got.
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error": "send failed",
			"state": saga.State(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_message_id":  saga.UserMessageID,
		"reply_message_id": saga.ReplyMessageID,
		"state":            saga.State(),
	})
}

// SelectQuickReply triggers a menu-driven canned reply.
// POST /v1/conversations/:shop_id/quick-replies
func (h *Handler) SelectQuickReply(c echo.Context) error {
	var req struct {
		Label string `json:"label"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}

	s, err := h.session(c, c.Param("shop_id"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}

	saga, err := s.responder.SelectQuickReply(c.Request().Context(), req.Label)
	if errors.Is(err, autoresponder.ErrUnknownQuickReply) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown quick reply"})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error": "send failed",
			"state": saga.State(),
		})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"user_message_id":  saga.UserMessageID,
		"reply_message_id": saga.ReplyMessageID,
		"state":            saga.State(),
	})
}

// SetFeedback votes on a shop message.
// POST /v1/conversations/:shop_id/messages/:message_id/feedback
func (h *Handler) SetFeedback(c echo.Context) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
	}

	value, ok := map[string]chat.Feedback{
		"useful":     chat.FeedbackUseful,
		"not_useful": chat.FeedbackNotUseful,
	}[req.Value]
	if !ok {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid value"})
	}

	s, err := h.session(c, c.Param("shop_id"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}

	err = s.tracker.SetFeedback(c.Request().Context(), c.Param("message_id"), value)
	if errors.Is(err, feedback.ErrNotApplicable) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "not applicable"})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "update failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// UploadAttachment admits an image into the conversation.
// POST /v1/conversations/:shop_id/attachments (multipart, field "file")
func (h *Handler) UploadAttachment(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "missing file"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unreadable file"})
	}

	s, err := h.session(c, c.Param("shop_id"))
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "sync failed"})
	}

	url, err := s.pipeline.Attach(c.Request().Context(), fileHeader.Filename, fileHeader.Header.Get("Content-Type"), data)
	if errors.Is(err, attachment.ErrUnsupportedType) {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unsupported type"})
	}
	if err != nil {
		return c.JSON(http.StatusBadGateway, map[string]string{"error": "upload failed"})
	}
	return c.JSON(http.StatusOK, map[string]string{"url": url})
}

// CloseConversation releases the shop's conversation subscription.
// DELETE /v1/conversations/:shop_id
func (h *Handler) CloseConversation(c echo.Context) error {
	shopID := c.Param("shop_id")

	h.mu.Lock()
	s, ok := h.open[shopID]
	if ok {
		delete(h.open, shopID)
	}
	h.mu.Unlock()

	if ok {
		s.store.Close()
	}
	return c.NoContent(http.StatusNoContent)
}
