package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"github.com/tulsiarena/booking-service/internal/models"
	"github.com/tulsiarena/booking-service/internal/repository"
	"github.com/tulsiarena/booking-service/pkg/auth"
	"github.com/tulsiarena/booking-service/pkg/rabbitmq"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrMobileTaken        = errors.New("user already exists with this mobile number")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	mobilePattern = regexp.MustCompile(`^\d{10}$`)
)

type RegisterInput struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	GetUser(ctx context.Context, id uint) (*models.User, error)
}

type authService struct {
	users     repository.UserRepository
	publisher *rabbitmq.Publisher
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthService(users repository.UserRepository, publisher *rabbitmq.Publisher, jwtSecret string, tokenTTL time.Duration) AuthService {
	return &authService{
		users:     users,
		publisher: publisher,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if len(input.Name) < 2 {
		return nil, "", fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	if !emailPattern.MatchString(input.Email) {
		return nil, "", fmt.Errorf("%w: a valid email address is required", ErrValidation)
	}
	if !mobilePattern.MatchString(input.Mobile) {
		return nil, "", fmt.Errorf("%w: a valid 10-digit mobile number is required", ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, "", fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return nil, "", ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if _, err := s.users.FindByMobile(ctx, input.Mobile); err == nil {
		return nil, "", ErrMobileTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Name:         input.Name,
		Email:        input.Email,
		Mobile:       input.Mobile,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The unique indexes backstop the lookups above under concurrency.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}

	// Welcome email is handled by the notification consumer; a publish
	// failure must not fail registration.
	if s.publisher != nil {
		event := map[string]any{"user_id": user.ID, "name": user.Name, "email": user.Email}
		if err := s.publisher.Publish("user.registered", event); err != nil {
			log.Printf("[auth] failed to publish user.registered: %v", err)
		}
	}

	token, err := auth.CreateToken(user.ID, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := auth.CreateToken(user.ID, user.Role, s.jwtSecret, s.tokenTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *authService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
