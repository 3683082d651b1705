package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"quickbite/api/apperrors"
	"quickbite/api/tracker"
)

type driverLocationRequest struct {
	Latitude  float64  `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64  `json:"longitude" validate:"min=-180,max=180"`
	Heading   *float64 `json:"heading"`
	Speed     *float64 `json:"speed"`
}

// postDriverLocation records a position ping from the authenticated driver
// and relays it to the active order's tracking channel when one exists.
func (s *Server) postDriverLocation(c *fiber.Ctx) error {
	var req driverLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := s.validate.Struct(req); err != nil {
		return apperrors.Validation("%v", err)
	}

	driverID, _ := currentUser(c)
	loc, err := s.tracker.Record(c.Context(), tracker.Update{
		DriverID:  driverID,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
		Heading:   req.Heading,
		Speed:     req.Speed,
	})
	if err != nil {
		return err
	}
	return ok(c, loc)
}

func (s *Server) getDriverLocation(c *fiber.Ctx) error {
	driverID, err := primitive.ObjectIDFromHex(c.Query("driverId"))
	if err != nil {
		return apperrors.Validation("invalid driver id")
	}
	loc, err := s.tracker.Get(c.Context(), driverID)
	if err != nil {
		return err
	}
	return ok(c, loc)
}

func (s *Server) nearestDriver(c *fiber.Ctx) error {
	lat := c.QueryFloat("lat")
	lon := c.QueryFloat("lon")
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return apperrors.Validation("invalid coordinates")
	}

	driverID, distance := s.tracker.Nearest(c.Context(), lat, lon)
	if driverID == "" {
		return apperrors.NotFound("no available drivers")
	}
	return ok(c, fiber.Map{
		"driver_id":   driverID,
		"distance_km": distance,
	})
}
