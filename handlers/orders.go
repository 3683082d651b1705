package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/lifecycle"
	"quickbite/api/models"
	"quickbite/api/store"
)

type orderItemRequest struct {
	MenuItemID string `json:"menu_item_id" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	Note       string `json:"note"`
}

type addressRequest struct {
	Street    string   `json:"street" validate:"required"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state"`
	Zip       string   `json:"zip" validate:"required"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

type createOrderRequest struct {
	RestaurantID string             `json:"restaurant_id" validate:"required"`
	Items        []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Address      addressRequest     `json:"delivery_address" validate:"required"`
	PromoCode    string             `json:"promotion_code"`
	Note         string             `json:"note"`
}

// @Summary Create an order
// @Tags Orders
// @Accept json
// @Produce json
// @Success 201 {object} models.Order
// @Router /api/v1/orders [post]
func (s *Server) createOrder(c *fiber.Ctx) error {
	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}

	restaurantID, err := primitive.ObjectIDFromHex(req.RestaurantID)
	if err != nil {
		return apperrors.Validation("invalid restaurant id")
	}
	items := make([]lifecycle.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		menuItemID, err := primitive.ObjectIDFromHex(item.MenuItemID)
		if err != nil {
			return apperrors.Validation("invalid menu item id %q", item.MenuItemID)
		}
		items = append(items, lifecycle.ItemInput{
			MenuItemID: menuItemID,
			Quantity:   item.Quantity,
			Note:       item.Note,
		})
	}

	customerID, _ := currentUser(c)
	order, err := s.lifecycle.CreateOrder(c.Context(), lifecycle.CreateOrderInput{
		CustomerID:   customerID,
		RestaurantID: restaurantID,
		Items:        items,
		Address: models.Address{
			Street:    req.Address.Street,
			City:      req.Address.City,
			State:     req.Address.State,
			Zip:       req.Address.Zip,
			Latitude:  req.Address.Latitude,
			Longitude: req.Address.Longitude,
		},
		PromoCode: req.PromoCode,
		Note:      req.Note,
	})
	if err != nil {
		return err
	}
	return created(c, order)
}

func (s *Server) listOrders(c *fiber.Ctx) error {
	filter := store.OrderFilter{
		Status: models.OrderStatus(c.Query("status")),
		Limit:  int64(c.QueryInt("limit")),
	}

	for query, target := range map[string]**primitive.ObjectID{
		"customerId":   &filter.CustomerID,
		"restaurantId": &filter.RestaurantID,
		"driverId":     &filter.DriverID,
	} {
		if value := c.Query(query); value != "" {
			id, err := primitive.ObjectIDFromHex(value)
			if err != nil {
				return apperrors.Validation("invalid %s", query)
			}
			*target = &id
		}
	}

	orders, err := s.orders.List(c.Context(), filter)
	if err != nil {
		return err
	}
	return ok(c, orders)
}

func (s *Server) getOrder(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid order id")
	}
	order, err := s.orders.GetByID(c.Context(), id)
	if err != nil {
		return err
	}
	return ok(c, order)
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (s *Server) updateOrderStatus(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid order id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}

	actorID, actorRole := currentUser(c)
	order, err := s.lifecycle.Transition(c.Context(), id, models.OrderStatus(req.Status), actorID, actorRole)
	if err != nil {
		return err
	}
	return ok(c, order)
}

type assignRequest struct {
	DriverID string `json:"driver_id"`
}

// assignDriver lets a driver accept a ready order. Admins may assign on a
// driver's behalf by passing driver_id.
func (s *Server) assignDriver(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid order id")
	}

	actorID, actorRole := currentUser(c)
	driverID := actorID
	if actorRole == models.RoleAdmin {
		var req assignRequest
		if err := c.BodyParser(&req); err != nil || req.DriverID == "" {
			return apperrors.Validation("driver_id is required")
		}
		driverID, err = primitive.ObjectIDFromHex(req.DriverID)
		if err != nil {
			return apperrors.Validation("invalid driver id")
		}
	}

	order, err := s.lifecycle.AssignDriver(c.Context(), id, driverID)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (s *Server) cancelOrder(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid order id")
	}
	order, err := s.lifecycle.Cancel(c.Context(), id)
	if err != nil {
		return err
	}
	return ok(c, order)
}

func (s *Server) adminSetOrderStatus(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return apperrors.Validation("invalid order id")
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}

	order, err := s.lifecycle.AdminSetStatus(c.Context(), id, models.OrderStatus(req.Status))
	if err != nil {
		return err
	}
	return ok(c, order)
}
