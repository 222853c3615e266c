package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iudanet/schoolsync/internal/client/storage"
	"github.com/iudanet/schoolsync/pkg/api"
)

// AuthAPI определяет часть API клиента, нужную сервису авторизации
type AuthAPI interface {
	Register(ctx context.Context, req api.RegisterRequest) (*api.RegisterResponse, error)
	Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*api.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

// Service управляет сессией пользователя на клиенте
type Service struct {
	apiClient   AuthAPI
	authStorage storage.AuthStorage
}

// NewService creates a new auth service
func NewService(apiClient AuthAPI, authStorage storage.AuthStorage) *Service {
	return &Service{
		apiClient:   apiClient,
		authStorage: authStorage,
	}
}

// Register регистрирует новую школу и пользователя на сервере
func (s *Service) Register(ctx context.Context, schoolName, username, password string) (*api.RegisterResponse, error) {
	resp, err := s.apiClient.Register(ctx, api.RegisterRequest{
		SchoolName: schoolName,
		Username:   username,
		Password:   password,
	})
	if err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}

	return resp, nil
}

// Login аутентифицируется на сервере и сохраняет сессию локально
func (s *Service) Login(ctx context.Context, username, password string) error {
	resp, err := s.apiClient.Login(ctx, api.LoginRequest{
		Username: username,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	session := &storage.Session{
		Username:     username,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second),
	}

	if err := s.authStorage.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// Logout отзывает refresh token и удаляет локальную сессию
func (s *Service) Logout(ctx context.Context) error {
	session, err := s.authStorage.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil // уже разлогинены
		}
		return fmt.Errorf("failed to get session: %w", err)
	}

	// Отзыв на сервере best-effort: локальную сессию удаляем в любом случае
	if err := s.apiClient.Logout(ctx, session.RefreshToken); err != nil {
		// Сервер мог быть недоступен — это не мешает локальному logout
		_ = err
	}

	if err := s.authStorage.DeleteSession(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	return nil
}

// Session возвращает текущую сессию
// Returns storage.ErrSessionNotFound if not logged in
func (s *Service) Session(ctx context.Context) (*storage.Session, error) {
	return s.authStorage.GetSession(ctx)
}

// AccessToken возвращает действующий access token,
// обновляя его через refresh token при истечении
func (s *Service) AccessToken(ctx context.Context) (string, error) {
	session, err := s.authStorage.GetSession(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return "", fmt.Errorf("not authenticated, please run 'schoolsync login' first")
		}
		return "", fmt.Errorf("failed to get session: %w", err)
	}

	if !session.IsExpired() {
		return session.AccessToken, nil
	}

	// Access token истек — обновляем через refresh token
	resp, err := s.apiClient.Refresh(ctx, session.RefreshToken)
	if err != nil {
		return "", fmt.Errorf("failed to refresh token, please login again: %w", err)
	}

	session.AccessToken = resp.AccessToken
	session.RefreshToken = resp.RefreshToken
	session.ExpiresAt = time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second)

	if err := s.authStorage.SaveSession(ctx, session); err != nil {
		return "", fmt.Errorf("failed to save refreshed session: %w", err)
	}

	return session.AccessToken, nil
}
