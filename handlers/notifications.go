package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
)

func (s *Server) listNotifications(c *fiber.Ctx) error {
	userID, _ := currentUser(c)
	notifications, err := s.notifications.ListForUser(c.Context(), userID, int64(c.QueryInt("limit")))
	if err != nil {
		return err
	}
	return ok(c, notifications)
}

func (s *Server) markNotificationRead(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid notification id")
	}

	userID, _ := currentUser(c)
	if err := s.notifications.MarkRead(c.Context(), id, userID); err != nil {
		return err
	}
	return ok(c, fiber.Map{"read": true})
}
