package auth

import (
	"strings"
	"time"
	"unicode"
)

type User struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DisplayName derives a readable name from the email local part,
// e.g. "serj@example.com" -> "Serj".
func (u User) DisplayName() string {
	localPart, _, _ := strings.Cut(u.Email, "@")
	if localPart == "" {
		return "User"
	}
	runes := []rune(localPart)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
