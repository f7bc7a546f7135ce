package jwttoken

import (
	"strings"

	dErrors "syncauth/pkg/domain-errors"
)

// ExtractBearer returns the token from an "Authorization: Bearer" header value.
func ExtractBearer(authHeader string) (string, error) {
	const bearerPrefix = "Bearer "
	if len(authHeader) <= len(bearerPrefix) || !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid authorization header")
	}
	token := strings.TrimSpace(authHeader[len(bearerPrefix):])
	if token == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid authorization header")
	}
	return token, nil
}
