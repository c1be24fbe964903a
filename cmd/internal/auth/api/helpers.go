package authapi

import (
	"strings"

	"japa/cmd/identity"
	"japa/cmd/internal/auth/session"
)

func toRegisterResponse(u identity.User) registerResponse {
	return registerResponse{UserID: u.ID, Phone: u.Phone, DisplayName: u.DisplayName}
}

func toLoginResponse(u identity.User, issued session.Issued) loginResponse {
	return loginResponse{
		Token:       issued.Token,
		ExpiresAt:   issued.ExpiresAt,
		UserID:      u.ID,
		DisplayName: u.DisplayName,
		Phone:       u.Phone,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonNil(vals ...*string) *string {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}
