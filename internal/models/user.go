package models

import "time"

// User представляет пользователя школы (учитель или администратор)
type User struct {
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	ID           string     `json:"id"`        // ID уникальный идентификатор пользователя (UUID)
	SchoolID     string     `json:"school_id"` // SchoolID школа, к которой привязан пользователь
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"` // PasswordHash argon2id хеш пароля (base64)
	Salt         string     `json:"-"` // Salt соль для хеширования (base64)
	SchoolName   string     `json:"school_name"`
}

// RefreshToken представляет refresh token для обновления access token
type RefreshToken struct {
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	Token     string    `json:"token"`
	UserID    string    `json:"user_id"`
}

// IsExpired проверяет, истек ли срок действия токена
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
