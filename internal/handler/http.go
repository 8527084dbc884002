package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reanayou-arch/Horror-Studio-Bot/internal/bot"
	"github.com/reanayou-arch/Horror-Studio-Bot/internal/middleware"
)

// eventRequest — входящее событие от транспортного адаптера.
type eventRequest struct {
	Type     string `json:"type" binding:"required"`
	UserID   int64  `json:"user_id" binding:"required"`
	Text     string `json:"text"`
	ChoiceID string `json:"choice_id"`
}

// BotHandler принимает события пользователей по HTTP и отдает их диспетчеру.
type BotHandler struct {
	dispatcher *bot.Dispatcher
	verifier   middleware.TokenVerifier
	logger     *zap.Logger
}

func NewBotHandler(dispatcher *bot.Dispatcher, verifier middleware.TokenVerifier, logger *zap.Logger) *BotHandler {
	return &BotHandler{
		dispatcher: dispatcher,
		verifier:   verifier,
		logger:     logger.Named("BotHandler"),
	}
}

func (h *BotHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.healthCheck)
	router.HEAD("/health", h.healthCheck)

	v1 := router.Group("/v1")
	v1.Use(middleware.InterServiceAuthMiddleware(h.verifier, h.logger))
	{
		v1.POST("/events", h.postEvent)
	}
}

func (h *BotHandler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// postEvent принимает событие и отвечает 202 сразу после постановки в обработку.
// Ответ пользователю уходит асинхронно через исходящий транспорт.
func (h *BotHandler) postEvent(c *gin.Context) {
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid event payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event payload"})
		return
	}

	eventType := bot.EventType(req.Type)
	switch eventType {
	case bot.EventUserStarted, bot.EventTextReceived, bot.EventChoiceSelected:
	default:
		h.logger.Warn("Unknown event type", zap.String("type", req.Type))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown event type"})
		return
	}

	ev := bot.Event{
		ID:       uuid.NewString(),
		Type:     eventType,
		UserID:   req.UserID,
		Text:     req.Text,
		ChoiceID: req.ChoiceID,
	}

	h.dispatcher.Dispatch(ev)
	c.JSON(http.StatusAccepted, gin.H{"event_id": ev.ID})
}
