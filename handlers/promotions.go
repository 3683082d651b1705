package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/models"
	"quickbite/api/promo"
)

type createPromotionRequest struct {
	Code           string    `json:"code" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=percentage fixed free_delivery"`
	Value          float64   `json:"value" validate:"min=0"`
	MinOrderAmount float64   `json:"min_order_amount" validate:"min=0"`
	MaxDiscount    *float64  `json:"max_discount"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	UsageLimit     int       `json:"usage_limit" validate:"min=0"`
	RestaurantID   string    `json:"restaurant_id"`
}

func (s *Server) createPromotion(c *fiber.Ctx) error {
	var req createPromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}
	if !req.EndDate.After(req.StartDate) {
		return apperrors.Validation("end date must be after start date")
	}

	p := &models.Promotion{
		Code:           req.Code,
		Type:           models.DiscountType(req.Type),
		Value:          req.Value,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		IsActive:       true,
		UsageLimit:     req.UsageLimit,
		CreatedAt:      time.Now(),
	}
	if req.RestaurantID != "" {
		restaurantID, err := primitive.ObjectIDFromHex(req.RestaurantID)
		if err != nil {
			return apperrors.Validation("invalid restaurant id")
		}
		p.RestaurantID = &restaurantID
	}

	if err := s.promotions.Insert(c.Context(), p); err != nil {
		return err
	}
	return created(c, p)
}

type validatePromotionRequest struct {
	Code        string  `json:"code" validate:"required"`
	OrderAmount float64 `json:"order_amount" validate:"required,gt=0"`
}

// validatePromotion is a dry run: it reports the discount a code would
// yield without redeeming it. Redemption happens at order creation.
func (s *Server) validatePromotion(c *fiber.Ctx) error {
	var req validatePromotionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}

	p, err := s.promotions.GetByCode(c.Context(), req.Code)
	if err != nil && !apperrors.IsKind(err, apperrors.KindNotFound) {
		return err
	}

	return ok(c, promo.Validate(p, req.OrderAmount, time.Now()))
}
