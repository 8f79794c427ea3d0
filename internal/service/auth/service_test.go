package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func newService() (*auth.Service, domain.UserRepository) {
	store := memory.NewStore()
	users := memory.NewUserRepository(store)
	return auth.NewService(users, "test-secret", nil, nil), users
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Test User", "test@example.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if user.ID == "" {
		t.Fatal("expected generated user id")
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password must be hashed")
	}

	token, logged, err := svc.Login(ctx, "test@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatal("expected token")
	}
	if logged.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, logged.ID)
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Test User", "test@example.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Register(ctx, "Other User", "test@example.com", "password456")
	if !errors.Is(err, domain.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestService_LoginWrongPassword(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Test User", "test@example.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, err := svc.Login(ctx, "test@example.com", "wrong-password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_LoginUnknownEmail(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "password123")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestService_Refresh(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Test User", "test@example.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, refreshed, err := svc.Refresh(ctx, user.ID)
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if refreshed.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, refreshed.ID)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, userID)
	}
}

func TestService_RefreshUnknownUser(t *testing.T) {
	svc, _ := newService()

	_, _, err := svc.Refresh(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestService_VerifyToken(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Test User", "test@example.com", "password123")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, _, err := svc.Login(ctx, "test@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	userID, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, userID)
	}
}

func TestService_VerifyTokenInvalid(t *testing.T) {
	svc, _ := newService()

	if _, err := svc.VerifyToken("not-a-token"); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// Токен, подписанный другим секретом, отклоняется.
	store := memory.NewStore()
	other := auth.NewService(memory.NewUserRepository(store), "other-secret", nil, nil)
	if _, err := other.Register(context.Background(), "U", "u@example.com", "password123"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, _, err := other.Login(context.Background(), "u@example.com", "password123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if _, err := svc.VerifyToken(token); !errors.Is(err, domain.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for foreign token, got %v", err)
	}
}
