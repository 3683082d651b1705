// Package promo evaluates promotion rules against an order amount. The
// validator is pure: it never touches storage, and free_delivery codes
// report a zero discount here because the fee waiver belongs to the caller.
package promo

import (
	"math"
	"time"

	"quickbite/api/models"
)

type Reason string

const (
	ReasonNotFound     Reason = "code not found"
	ReasonInactive     Reason = "code is not active"
	ReasonNotStarted   Reason = "promotion has not started"
	ReasonExpired      Reason = "promotion has expired"
	ReasonExhausted    Reason = "promotion usage limit reached"
	ReasonBelowMinimum Reason = "order amount below minimum"
)

type Result struct {
	Valid    bool    `json:"is_valid"`
	Discount float64 `json:"discount"`
	Reason   Reason  `json:"reason,omitempty"`
}

// Validate runs the promotion checks in order, short-circuiting on the
// first failure so callers can show a specific message.
func Validate(p *models.Promotion, orderAmount float64, now time.Time) Result {
	if p == nil {
		return Result{Reason: ReasonNotFound}
	}
	if !p.IsActive {
		return Result{Reason: ReasonInactive}
	}
	if now.Before(p.StartDate) {
		return Result{Reason: ReasonNotStarted}
	}
	if now.After(p.EndDate) {
		return Result{Reason: ReasonExpired}
	}
	if p.UsageLimit > 0 && p.UsedCount >= p.UsageLimit {
		return Result{Reason: ReasonExhausted}
	}
	if orderAmount < p.MinOrderAmount {
		return Result{Reason: ReasonBelowMinimum}
	}

	return Result{Valid: true, Discount: discount(p, orderAmount)}
}

func discount(p *models.Promotion, orderAmount float64) float64 {
	switch p.Type {
	case models.DiscountPercentage:
		d := orderAmount * p.Value / 100
		if p.MaxDiscount != nil && d > *p.MaxDiscount {
			d = *p.MaxDiscount
		}
		return round2(d)
	case models.DiscountFixed:
		if p.Value > orderAmount {
			return round2(orderAmount)
		}
		return round2(p.Value)
	case models.DiscountFreeDeliver:
		return 0
	}
	return 0
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
