package api

// RegisterRequest представляет запрос на регистрацию новой школы и пользователя
type RegisterRequest struct {
	SchoolName string `json:"school_name"` // название школы (tenant)
	Username   string `json:"username"`    // username пользователя
	Password   string `json:"password"`    // пароль (передается по TLS)
}

// RegisterResponse представляет ответ на успешную регистрацию
type RegisterResponse struct {
	UserID   string `json:"user_id"`   // UUID пользователя
	SchoolID string `json:"school_id"` // UUID школы
	Message  string `json:"message"`   // сообщение об успешной регистрации
}

// LoginRequest представляет запрос на аутентификацию
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse представляет ответ с токенами доступа
type TokenResponse struct {
	AccessToken  string `json:"access_token"`  // JWT access token
	RefreshToken string `json:"refresh_token"` // refresh token
	ExpiresIn    int64  `json:"expires_in"`    // время жизни access token в секундах
}

// RefreshRequest представляет запрос на обновление access token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// LogoutRequest представляет запрос на отзыв refresh token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
