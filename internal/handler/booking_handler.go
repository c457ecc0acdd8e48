package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tulsiarena/booking-service/internal/dto"
	"github.com/tulsiarena/booking-service/internal/middleware"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/service"
)

type BookingHandler struct {
	svc service.BookingService
}

func NewBookingHandler(svc service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc}
}

func (h *BookingHandler) RegisterRoutes(g *echo.Group, authMW echo.MiddlewareFunc) {
	bookings := g.Group("/bookings", authMW)
	bookings.POST("", h.CreateBooking)
	bookings.POST("/orders", h.CreateOrder)
	bookings.POST("/verify-payment", h.VerifyPayment)
	bookings.GET("/by-date", h.ListByDate)
	bookings.GET("/my", h.ListMyBookings)
	bookings.GET("/:id", h.GetBooking)
	bookings.PUT("/:id/cancel", h.CancelBooking)
}

func bookingRequestFrom(req dto.CreateBookingRequest) (service.BookingRequest, error) {
	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return service.BookingRequest{}, errors.New("date must be formatted YYYY-MM-DD")
		}
		date = parsed
	}

	return service.BookingRequest{
		FacilityName:      req.FacilityName,
		FacilityType:      models.FacilityType(req.FacilityType),
		Date:              date,
		TimeSlots:         req.TimeSlots,
		AdditionalPlayers: req.AdditionalPlayers,
		BasePrice:         req.BasePrice.String(),
		DiscountCode:      req.DiscountCode,
	}, nil
}

func (h *BookingHandler) CreateBooking(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	input, err := bookingRequestFrom(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	booking, err := h.svc.CreateBooking(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CreateOrder(c echo.Context) error {
	var req dto.CreateBookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	input, err := bookingRequestFrom(req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), middleware.UserID(c), input)
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToOrderResponse(order))
}

func (h *BookingHandler) VerifyPayment(c echo.Context) error {
	var req dto.VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.RazorpayOrderID == "" || req.RazorpayPaymentID == "" || req.RazorpaySignature == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "order id, payment id and signature are required")
	}

	booking, err := h.svc.VerifyPayment(c.Request().Context(), req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature)
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusCreated, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) ListByDate(c echo.Context) error {
	date, err := time.Parse("2006-01-02", c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter must be formatted YYYY-MM-DD")
	}

	bookings, err := h.svc.ListByDate(c.Request().Context(), date)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.DaySlotResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToDaySlotResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) ListMyBookings(c echo.Context) error {
	bookings, err := h.svc.ListMyBookings(c.Request().Context(), middleware.UserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) GetBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.svc.GetBooking(c.Request().Context(), uint(id), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *BookingHandler) CancelBooking(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	booking, err := h.svc.CancelBooking(c.Request().Context(), uint(id), middleware.UserID(c), middleware.Role(c))
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func mapBookingError(err error) *echo.HTTPError {
	var conflict *service.SlotConflictError
	var capacity *service.PoolCapacityError

	switch {
	case errors.As(err, &conflict), errors.As(err, &capacity):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrInvalidBasePrice),
		errors.Is(err, service.ErrNoTimeSlots),
		errors.Is(err, service.ErrNonPositiveTotal),
		errors.Is(err, service.ErrPoolCutoff),
		errors.Is(err, service.ErrAlreadyCancelled),
		errors.Is(err, service.ErrPastBookingDate),
		errors.Is(err, service.ErrPaymentRequired),
		errors.Is(err, service.ErrPaymentNotConfigured),
		errors.Is(err, service.ErrSignatureMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBookingNotFound),
		errors.Is(err, service.ErrDraftNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotBookingOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrPaymentGateway):
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
