package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id (рекомендации RFC 9106 для интерактивного применения)
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MB
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

// HashPassword хеширует пароль с использованием Argon2id и случайной соли.
// Возвращает base64-кодированные хеш и соль для хранения в БД.
func HashPassword(password string) (hash, salt string, err error) {
	if password == "" {
		return "", "", fmt.Errorf("password cannot be empty")
	}

	// Генерируем случайную соль
	saltBytes := make([]byte, saltLen)
	if _, err := rand.Read(saltBytes); err != nil {
		return "", "", fmt.Errorf("failed to generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)

	return base64.StdEncoding.EncodeToString(key),
		base64.StdEncoding.EncodeToString(saltBytes),
		nil
}

// VerifyPassword проверяет, соответствует ли пароль сохраненному хешу.
// Сравнение константное по времени.
func VerifyPassword(password, hash, salt string) error {
	if password == "" {
		return fmt.Errorf("password cannot be empty")
	}

	saltBytes, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		return fmt.Errorf("failed to decode salt: %w", err)
	}

	hashBytes, err := base64.StdEncoding.DecodeString(hash)
	if err != nil {
		return fmt.Errorf("failed to decode hash: %w", err)
	}

	key := argon2.IDKey([]byte(password), saltBytes, argonTime, argonMemory, argonThreads, argonKeyLen)

	if subtle.ConstantTimeCompare(key, hashBytes) != 1 {
		return fmt.Errorf("invalid password")
	}

	return nil
}
