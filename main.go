package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/tulsiarena/booking-service/config"
	"github.com/tulsiarena/booking-service/internal/handler"
	"github.com/tulsiarena/booking-service/internal/middleware"
	"github.com/tulsiarena/booking-service/internal/repository"
	"github.com/tulsiarena/booking-service/internal/service"
	"github.com/tulsiarena/booking-service/pkg/database"
	"github.com/tulsiarena/booking-service/pkg/payment"
	"github.com/tulsiarena/booking-service/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db := database.NewPostgresDB(cfg.DSN())

	// RabbitMQ publisher: notification events, optional
	var publisher *rabbitmq.Publisher
	if cfg.RabbitURL != "" {
		publisher, err = rabbitmq.NewPublisher(cfg.RabbitURL)
		if err != nil {
			log.Fatalf("failed to connect to RabbitMQ: %v", err)
		}
		defer publisher.Close()
	} else {
		log.Println("RABBITMQ_URL not set, notification events disabled")
	}

	// Payment gateway: when configured, bookings are payment-gated
	var gateway payment.Gateway
	if cfg.PaymentEnabled() {
		gateway = payment.NewRazorpayGateway(cfg.RazorpayKeyID, cfg.RazorpayKeySecret)
		log.Println("Razorpay gateway configured, bookings are payment-gated")
	} else {
		log.Println("no payment gateway configured, bookings confirm directly")
	}

	// Repositories
	bookingRepo := repository.NewBookingRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	discountRepo := repository.NewDiscountRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Services
	discountSvc := service.NewDiscountService(discountRepo)
	bookingSvc := service.NewBookingService(bookingRepo, draftRepo, discountSvc, gateway, publisher)
	authSvc := service.NewAuthService(userRepo, publisher, cfg.JWTSecret, time.Duration(cfg.JWTExpireMin)*time.Minute)

	// Echo
	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "booking-service"})
	})

	api := e.Group("/api/v1")
	authMW := middleware.JWT(cfg.JWTSecret)

	handler.NewAuthHandler(authSvc).RegisterRoutes(api, authMW)
	handler.NewBookingHandler(bookingSvc).RegisterRoutes(api, authMW)
	handler.NewDiscountHandler(discountSvc).RegisterRoutes(api, authMW)
	handler.NewAdminHandler(bookingSvc, discountSvc, bookingRepo, userRepo).RegisterRoutes(api, authMW, middleware.AdminOnly)

	log.Printf("Booking Service starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
