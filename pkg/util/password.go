package util

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost        = 12
	MinPasswordLength = 8
)

var (
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrPasswordNumeric   = errors.New("password cannot be entirely numeric")
	ErrPasswordLikeUser  = errors.New("password is too similar to the username")
	ErrPasswordTooCommon = errors.New("password is too common")
)

var commonPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"12345678":  {},
	"qwertyui":  {},
	"iloveyou":  {},
	"letmein1":  {},
	"admin123":  {},
}

// HashPassword hashes a plain text password
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifyPassword checks if a plain text password matches a hashed password
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// CheckPasswordPolicy applies the registration password rules.
func CheckPasswordPolicy(password, username string) error {
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return ErrPasswordNumeric
	}
	if username != "" && strings.Contains(strings.ToLower(password), strings.ToLower(username)) {
		return ErrPasswordLikeUser
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return ErrPasswordTooCommon
	}
	return nil
}
