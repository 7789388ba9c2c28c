package validation

import (
	"fmt"
	"regexp"
)

// UserIDPattern определяет допустимый формат идентификатора пользователя
// Латинские буквы, цифры, нижнее подчеркивание и дефис
// Длина: 1-128 символов
var UserIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,128}$`)

// NodeIDPattern определяет допустимый формат идентификатора узла (часов)
// Дополнительно разрешены точка и двоеточие
var NodeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_.:-]{1,64}$`)

const (
	// MaxUserIDLen максимальная длина идентификатора пользователя
	MaxUserIDLen = 128
	// MaxNodeIDLen максимальная длина идентификатора узла
	MaxNodeIDLen = 64
	// MaxDisplayNameLen максимальная длина отображаемого имени узла
	MaxDisplayNameLen = 64
)

// ValidateUserID проверяет, что userID годится как сегмент пути users/{userId}
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user id cannot be empty")
	}

	if len(userID) > MaxUserIDLen {
		return fmt.Errorf("user id must not exceed %d characters", MaxUserIDLen)
	}

	if !UserIDPattern.MatchString(userID) {
		return fmt.Errorf("user id can only contain letters (a-z, A-Z), numbers (0-9), underscores (_) and dashes (-)")
	}

	return nil
}

// ValidateNodeID проверяет идентификатор подключаемого узла
func ValidateNodeID(nodeID string) error {
	if nodeID == "" {
		return fmt.Errorf("node id cannot be empty")
	}

	if len(nodeID) > MaxNodeIDLen {
		return fmt.Errorf("node id must not exceed %d characters", MaxNodeIDLen)
	}

	if !NodeIDPattern.MatchString(nodeID) {
		return fmt.Errorf("node id can only contain letters, numbers and the characters _ . : -")
	}

	return nil
}

// ValidateDisplayName проверяет отображаемое имя узла. Пустое имя допустимо.
func ValidateDisplayName(name string) error {
	if len([]rune(name)) > MaxDisplayNameLen {
		return fmt.Errorf("display name must not exceed %d characters", MaxDisplayNameLen)
	}
	return nil
}
