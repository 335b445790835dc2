package app

import (
	chatdomain "marketplace_chat_service/internal/chat/domain"
	"marketplace_chat_service/internal/chat/repository"
	"marketplace_chat_service/pkg/logger"
	"marketplace_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 50

// ChatRestHandler thin REST boundary over the stores, serving the
// conversation-start lookup and the read side of history, counters and
// presence
type ChatRestHandler struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	counters repository.CounterRepository
	presence repository.PresenceRepository
}

// NewChatRestHandler create ChatRestHandler
func NewChatRestHandler(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	counters repository.CounterRepository,
	presence repository.PresenceRepository,
) *ChatRestHandler {
	return &ChatRestHandler{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		counters: counters,
		presence: presence,
	}
}

// CreateConversation find or create the one-to-one conversation with a peer
// @Summary Find or create a conversation
// @Tags Conversations
// @Accept json
// @Produce json
// @Param request body object true "peer identity"
// @Success 200 {object} domain.Conversation
// @Router /api/conversations [post]
func (h *ChatRestHandler) CreateConversation(c *fiber.Ctx) error {
	type request struct {
		PeerID string `json:"peerId"`
	}

	var req request
	if err := c.BodyParser(&req); err != nil || req.PeerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request"})
	}

	userID, _ := c.Locals(middlewares.TokenUserID).(string)
	roleStr, _ := c.Locals(middlewares.TokenRole).(string)
	role := chatdomain.ParseRole(roleStr)

	buyerID, sellerID := userID, req.PeerID
	if role == chatdomain.RoleSeller {
		buyerID, sellerID = req.PeerID, userID
	}

	conv, err := h.convRepo.FindOrCreatePrivate(c.Context(), buyerID, sellerID)
	if err != nil {
		logger.Log.Errorf("conversation lookup failed:", err, zap.String("buyer", buyerID), zap.String("seller", sellerID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "conversation lookup failed"})
	}

	return c.JSON(conv)
}

// GetMessages read persisted history of one conversation
// @Summary Conversation history
// @Tags Conversations
// @Produce json
// @Param id path string true "conversation id"
// @Success 200 {array} domain.Message
// @Router /api/conversations/{id}/messages [get]
func (h *ChatRestHandler) GetMessages(c *fiber.Ctx) error {
	conversationID := c.Params("id")
	limit := c.QueryInt("limit", defaultHistoryLimit)

	msgs, err := h.msgRepo.FindByConversation(c.Context(), conversationID, limit)
	if err != nil {
		logger.Log.Errorf("history read failed:", err, zap.String("conversation", conversationID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "history read failed"})
	}

	return c.JSON(msgs)
}

// GetUnseen read the caller's unseen counter of one conversation
// @Summary Unseen count
// @Tags Conversations
// @Produce json
// @Param id path string true "conversation id"
// @Success 200 {object} map[string]int64
// @Router /api/conversations/{id}/unseen [get]
func (h *ChatRestHandler) GetUnseen(c *fiber.Ctx) error {
	conversationID := c.Params("id")

	userID, _ := c.Locals(middlewares.TokenUserID).(string)
	roleStr, _ := c.Locals(middlewares.TokenRole).(string)
	key := chatdomain.IdentityKey(chatdomain.ParseRole(roleStr), userID)

	count, err := h.counters.Get(c.Context(), key, conversationID)
	if err != nil {
		logger.Log.Errorf("unseen counter read failed:", err, zap.String("identity", key))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "counter read failed"})
	}

	return c.JSON(fiber.Map{"conversationId": conversationID, "count": count})
}

// GetPresence report whether a participant holds a live presence lease
// @Summary Presence flag
// @Tags Presence
// @Produce json
// @Param identity path string true "identity key, e.g. seller_42"
// @Success 200 {object} map[string]bool
// @Router /api/presence/{identity} [get]
func (h *ChatRestHandler) GetPresence(c *fiber.Ctx) error {
	identity := c.Params("identity")

	online, err := h.presence.IsOnline(c.Context(), identity)
	if err != nil {
		logger.Log.Errorf("presence read failed:", err, zap.String("identity", identity))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "presence read failed"})
	}

	return c.JSON(fiber.Map{"identity": identity, "online": online})
}
