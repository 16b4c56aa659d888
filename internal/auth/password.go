package auth

import (
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ParseBasic decodes "Basic base64(email:password)". Anything that does not
// split into exactly scheme + payload and email + password is rejected.
func ParseBasic(header string) (email, password string, ok bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Basic") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", "", false
	}
	creds := strings.Split(string(raw), ":")
	if len(creds) != 2 {
		return "", "", false
	}
	return creds[0], creds[1], true
}
