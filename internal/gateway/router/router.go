package router

import (
	"context"

	"marketplace_chat_service/internal/gateway/app"
	"marketplace_chat_service/pkg/middlewares"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"github.com/gofiber/websocket/v2"
)

// RegisterRoutes register gateway routes
// @title Marketplace Chat Gateway API
// @version 1.0
// @description Realtime chat gateway for buyer-seller conversations
// @BasePath /
func RegisterRoutes(r *fiber.App, wsHandler *app.ChatWebsocketHandler, restHandler *app.ChatRestHandler) {
	r.Get("/swagger/*", swagger.HandlerDefault)
	r.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	r.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHandler.HandleConnection(context.Background(), c)
	}))

	// presence is readable without a session, the REST layer polls it
	r.Get("/api/presence/:identity", restHandler.GetPresence)

	api := r.Group("/api", middlewares.JWTMiddleware())
	api.Post("/conversations", restHandler.CreateConversation)
	api.Get("/conversations/:id/messages", restHandler.GetMessages)
	api.Get("/conversations/:id/unseen", restHandler.GetUnseen)
}
