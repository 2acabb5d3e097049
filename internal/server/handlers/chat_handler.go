package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/flockage/internal/domain/models"
	"github.com/mamadbah2/flockage/internal/service/whatsapp"
)

// ChatHandler connects the WhatsApp bot to HTTP: Meta's subscription handshake,
// inbound chat callbacks and operator-initiated messages.
type ChatHandler struct {
	bot    whatsapp.MessagingService
	logger *zap.Logger
}

// NewChatHandler constructs the HTTP handler adapter.
func NewChatHandler(bot whatsapp.MessagingService, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{bot: bot, logger: logger}
}

// Subscribe answers GET /webhook. Meta expects the bare challenge echoed back.
func (h *ChatHandler) Subscribe(c *gin.Context) {
	challenge, err := h.bot.VerifyWebhookToken(c.Query("hub.mode"), c.Query("hub.verify_token"), c.Query("hub.challenge"))
	if err != nil {
		h.logger.Warn("chat subscription rejected", zap.String("mode", c.Query("hub.mode")), zap.Error(err))
		c.JSON(http.StatusForbidden, gin.H{"error": "verify token mismatch", "kind": "forbidden"})
		return
	}
	c.String(http.StatusOK, challenge)
}

// Inbound answers POST /webhook. Command failures are logged and acknowledged
// anyway; a non-2xx makes Meta redeliver the same flock commands.
func (h *ChatHandler) Inbound(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("malformed chat callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed callback body", "kind": "invalid_format"})
		return
	}

	if err := h.bot.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("chat commands not fully answered",
			zap.Int("messages", inboundCount(payload)),
			zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// Outbound answers POST /send-message with a text pushed to one chat.
func (h *ChatHandler) Outbound(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and message are required", "kind": "invalid_format"})
		return
	}

	if err := h.bot.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound chat message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "whatsapp did not accept the message", "kind": "upstream"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"to": req.To, "sent": true})
}

func inboundCount(payload models.WebhookPayload) int {
	n := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			n += len(change.Value.Messages)
		}
	}
	return n
}
