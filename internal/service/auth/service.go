package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const defaultTokenTTL = 24 * time.Hour

// Service отвечает за регистрацию, вход и проверку JWT-токенов.
type Service struct {
	users    domain.UserRepository
	secret   []byte
	tokenTTL time.Duration
	clock    domain.Clock
	logger   *log.Entry
}

// NewService создаёт auth-сервис с HS256-подписью токенов.
func NewService(users domain.UserRepository, secret string, clock domain.Clock, logger *log.Entry) *Service {
	if clock == nil {
		clock = domain.SystemClock{}
	}
	if logger == nil {
		logger = log.WithField("component", "auth-service")
	}
	return &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: defaultTokenTTL,
		clock:    clock,
		logger:   logger,
	}
}

// Register создаёт учётную запись с bcrypt-хэшем пароля.
func (s *Service) Register(ctx context.Context, name, email, password string) (domain.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, err
	}

	s.logger.WithFields(log.Fields{
		"user_id": user.ID,
		"email":   user.Email,
	}).Info("user registered")

	return user, nil
}

// Login проверяет пароль и выдаёт подписанный токен. Неизвестный email
// и неверный пароль неразличимы для вызывающего.
func (s *Service) Login(ctx context.Context, email, password string) (string, domain.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.User{}, domain.ErrInvalidCredentials
		}
		return "", domain.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", domain.User{}, domain.ErrInvalidCredentials
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("user logged in")
	return token, user, nil
}

// Refresh выдаёт новый токен уже аутентифицированному пользователю.
// Прежний токен остаётся действительным до своего срока: подписи без
// серверного состояния не отзываются.
func (s *Service) Refresh(ctx context.Context, userID string) (string, domain.User, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return "", domain.User{}, err
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("issue token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("token refreshed")
	return token, user, nil
}

// VerifyToken проверяет подпись и срок токена, возвращая ID пользователя.
func (s *Service) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", domain.ErrInvalidToken
	}

	return claims.Subject, nil
}

func (s *Service) issueToken(userID string) (string, error) {
	now := s.clock.Now()
	claims := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	})
	return claims.SignedString(s.secret)
}
