package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/tulsiarena/booking-service/internal/dto"
	"github.com/tulsiarena/booking-service/internal/middleware"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/service"
)

type DiscountHandler struct {
	svc service.DiscountService
}

func NewDiscountHandler(svc service.DiscountService) *DiscountHandler {
	return &DiscountHandler{svc: svc}
}

func (h *DiscountHandler) RegisterRoutes(g *echo.Group, authMW echo.MiddlewareFunc) {
	discounts := g.Group("/discounts", authMW)
	discounts.POST("/validate", h.Validate)
	discounts.POST("/redeem", h.Redeem)
}

// Validate previews a code against a would-be booking without consuming a
// use. Unusable codes come back valid=false with a reason, never an error.
func (h *DiscountHandler) Validate(c echo.Context) error {
	var req dto.ValidateDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	quote, err := service.ComputePrice(
		models.FacilityType(req.FacilityType),
		req.TimeSlots,
		req.AdditionalPlayers,
		req.BasePrice.String(),
	)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	outcome, err := h.svc.Evaluate(c.Request().Context(), req.Code, quote.PriceBeforeDiscount, middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.DiscountPreviewResponse{
		Valid:          outcome.Applied,
		Reason:         string(outcome.Reason),
		Code:           outcome.Code,
		DiscountAmount: outcome.Amount,
		FinalAmount:    quote.PriceBeforeDiscount - outcome.Amount,
	})
}

func (h *DiscountHandler) Redeem(c echo.Context) error {
	var req dto.RedeemDiscountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Code == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code is required")
	}

	err := h.svc.Redeem(c.Request().Context(), req.Code, middleware.UserID(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCodeNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrCodeExhausted), errors.Is(err, service.ErrCodeAlreadyUsed):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "discount code redeemed"})
}
