package domain

import "time"

// User — учётная запись кассира/оператора POS.
type User struct {
	ID    string
	Name  string
	Email string
	// PasswordHash — bcrypt-хэш пароля; открытый пароль нигде не хранится.
	PasswordHash string
	CreatedAt    time.Time
}
