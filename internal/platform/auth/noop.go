package auth

import (
	"context"
	"errors"
	"strings"
)

var errBadDevToken = errors.New("dev token must be a single non-empty user ID")

// devVerifier trusts the caller: the token is the user ID. Local runs and
// tests only.
type devVerifier struct{}

func (devVerifier) Verify(_ context.Context, token string) (Principal, error) {
	userID := strings.TrimSpace(token)
	if userID == "" || strings.ContainsAny(userID, " \t\r\n") {
		return Principal{}, errBadDevToken
	}
	return Principal{UserID: userID, Token: token}, nil
}
