package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tulsiarena/booking-service/internal/dto"
	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/repository"
	"github.com/tulsiarena/booking-service/internal/service"
)

// AdminHandler serves the dashboard API. Listings go straight to the
// repositories; status changes go through the booking service so slot claims
// stay consistent.
type AdminHandler struct {
	bookingSvc  service.BookingService
	discountSvc service.DiscountService
	bookingRepo repository.BookingRepository
	userRepo    repository.UserRepository
}

func NewAdminHandler(
	bookingSvc service.BookingService,
	discountSvc service.DiscountService,
	bookingRepo repository.BookingRepository,
	userRepo repository.UserRepository,
) *AdminHandler {
	return &AdminHandler{
		bookingSvc:  bookingSvc,
		discountSvc: discountSvc,
		bookingRepo: bookingRepo,
		userRepo:    userRepo,
	}
}

func (h *AdminHandler) RegisterRoutes(g *echo.Group, authMW, adminMW echo.MiddlewareFunc) {
	admin := g.Group("/admin", authMW, adminMW)
	admin.GET("/bookings", h.ListBookings)
	admin.GET("/bookings/facility/:facilityName", h.ListBookingsByFacility)
	admin.PUT("/bookings/:id/status", h.UpdateBookingStatus)
	admin.GET("/users", h.ListUsers)
	admin.POST("/discount-codes", h.CreateDiscountCode)
	admin.GET("/discount-codes", h.ListDiscountCodes)
	admin.PUT("/discount-codes/:code/active", h.SetDiscountCodeActive)
}

func (h *AdminHandler) ListBookings(c echo.Context) error {
	bookings, err := h.bookingRepo.FindAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) ListBookingsByFacility(c echo.Context) error {
	facilityName := c.Param("facilityName")
	if _, ok := models.FacilityTypeFor(facilityName); !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "unknown facility")
	}

	bookings, err := h.bookingRepo.FindByFacility(c.Request().Context(), facilityName)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.BookingResponse, len(bookings))
	for i, b := range bookings {
		resp[i] = dto.ToBookingResponse(&b)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) UpdateBookingStatus(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid booking id")
	}

	var req dto.UpdateBookingStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	booking, err := h.bookingSvc.UpdateBookingStatus(c.Request().Context(), uint(id), models.BookingStatus(req.Status))
	if err != nil {
		return mapBookingError(err)
	}

	return c.JSON(http.StatusOK, dto.ToBookingResponse(booking))
}

func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.userRepo.FindByRole(c.Request().Context(), models.RoleUser)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.UserResponse, len(users))
	for i, u := range users {
		resp[i] = dto.ToUserResponse(&u)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) CreateDiscountCode(c echo.Context) error {
	var req dto.CreateDiscountCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Code == "" || req.DiscountValue < 1 || req.MaxUses < 1 {
		return echo.NewHTTPError(http.StatusBadRequest, "code, discountValue (>=1) and maxUses (>=1) are required")
	}
	discountType := models.DiscountType(req.DiscountType)
	if discountType != models.DiscountPercentage && discountType != models.DiscountFlat {
		return echo.NewHTTPError(http.StatusBadRequest, "discountType must be percentage or flat")
	}
	if discountType == models.DiscountPercentage && req.DiscountValue > 100 {
		return echo.NewHTTPError(http.StatusBadRequest, "percentage discounts cannot exceed 100")
	}
	expiresAt, err := time.Parse(time.RFC3339, req.ExpiresAt)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expiresAt must be an RFC 3339 timestamp")
	}

	code := &models.DiscountCode{
		Code:           req.Code,
		DiscountType:   discountType,
		DiscountValue:  req.DiscountValue,
		MaxUses:        req.MaxUses,
		MinOrderAmount: req.MinOrderAmount,
		ExpiresAt:      expiresAt,
		IsActive:       true,
		Description:    req.Description,
	}
	if err := h.discountSvc.Create(c.Request().Context(), code); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, dto.ToDiscountCodeResponse(code))
}

func (h *AdminHandler) ListDiscountCodes(c echo.Context) error {
	codes, err := h.discountSvc.List(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	resp := make([]dto.DiscountCodeResponse, len(codes))
	for i := range codes {
		resp[i] = dto.ToDiscountCodeResponse(&codes[i])
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AdminHandler) SetDiscountCodeActive(c echo.Context) error {
	var req dto.SetDiscountActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	code, err := h.discountSvc.SetActive(c.Request().Context(), c.Param("code"), req.Active)
	if err != nil {
		if errors.Is(err, service.ErrCodeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, dto.ToDiscountCodeResponse(code))
}
