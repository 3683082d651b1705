package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quickbite/api/apperrors"
	"quickbite/api/config"
	"quickbite/api/lifecycle"
	"quickbite/api/relay"
	"quickbite/api/store"
	"quickbite/api/tracker"
)

type Server struct {
	cfg           *config.Config
	lifecycle     *lifecycle.Manager
	tracker       *tracker.Tracker
	relay         *relay.Publisher
	orders        store.OrderStore
	promotions    store.PromotionStore
	notifications store.NotificationStore
	validate      *validator.Validate
}

func NewServer(
	cfg *config.Config,
	manager *lifecycle.Manager,
	trk *tracker.Tracker,
	publisher *relay.Publisher,
	orders store.OrderStore,
	promotions store.PromotionStore,
	notifications store.NotificationStore,
) *Server {
	return &Server{
		cfg:           cfg,
		lifecycle:     manager,
		tracker:       trk,
		relay:         publisher,
		orders:        orders,
		promotions:    promotions,
		notifications: notifications,
		validate:      validator.New(),
	}
}

func (s *Server) RegisterRoutes(app *fiber.App) {
	app.Get("/health", healthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/api/v1")

	orders := v1.Group("/orders", s.requireAuth)
	orders.Post("/", s.requireRole("customer"), s.createOrder)
	orders.Get("/", s.listOrders)
	orders.Get("/:id", s.getOrder)
	orders.Put("/:id/status", s.updateOrderStatus)
	orders.Post("/:id/assign", s.requireRole("driver", "admin"), s.assignDriver)
	orders.Post("/:id/cancel", s.cancelOrder)

	admin := v1.Group("/admin", s.requireAuth, s.requireRole("admin"))
	admin.Put("/orders/:id/status", s.adminSetOrderStatus)

	promotions := v1.Group("/promotions")
	promotions.Post("/", s.requireAuth, s.requireRole("restaurant", "admin"), s.createPromotion)
	promotions.Post("/validate", s.validatePromotion)

	realtime := v1.Group("/realtime", s.requireAuth)
	realtime.Post("/driver-location", s.requireRole("driver"), s.postDriverLocation)

	v1.Get("/driver/location", s.requireAuth, s.getDriverLocation)
	v1.Get("/drivers/nearest", s.requireAuth, s.nearestDriver)

	notifications := v1.Group("/notifications", s.requireAuth)
	notifications.Get("/", s.listNotifications)
	notifications.Put("/:id/read", s.markNotificationRead)

	// WebSocket routes
	app.Get("/track", websocket.New(s.handleTrackingWebSocket))
	app.Use("/ws", s.validateWSToken)
	app.Get("/ws", websocket.New(s.handlePersonalWebSocket))
}

// ErrorHandler serializes every error escaping a handler as the standard
// envelope. Unknown errors become 500s without leaking internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		code = apperrors.HTTPStatus(appErr)
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	default:
		message = "internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

func healthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"time":   time.Now(),
	})
}

func ok(c *fiber.Ctx, data interface{}) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}

func created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    data,
	})
}
