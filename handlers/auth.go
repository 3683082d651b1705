package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/models"
)

const (
	localUserID = "userID"
	localRole   = "role"
)

func (s *Server) parseToken(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// requireAuth expects "Authorization: Bearer <token>" with sub and role
// claims and stashes both in locals.
func (s *Server) requireAuth(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return fiber.ErrUnauthorized
	}

	claims, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return fiber.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	userID, err := primitive.ObjectIDFromHex(sub)
	if err != nil || role == "" {
		return fiber.ErrUnauthorized
	}

	c.Locals(localUserID, userID)
	c.Locals(localRole, models.Role(role))
	return c.Next()
}

func (s *Server) requireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals(localRole).(models.Role)
		for _, allowed := range roles {
			if string(role) == allowed {
				return c.Next()
			}
		}
		return fiber.ErrForbidden
	}
}

// validateWSToken authenticates websocket upgrades; browsers cannot set
// headers on upgrade requests, so the token rides in the query string.
func (s *Server) validateWSToken(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return fiber.ErrUnauthorized
	}

	claims, err := s.parseToken(token)
	if err != nil {
		return fiber.ErrUnauthorized
	}

	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	if sub == "" || role == "" {
		return fiber.ErrUnauthorized
	}
	return c.Next()
}

func currentUser(c *fiber.Ctx) (primitive.ObjectID, models.Role) {
	userID, _ := c.Locals(localUserID).(primitive.ObjectID)
	role, _ := c.Locals(localRole).(models.Role)
	return userID, role
}
