package authapi

import "time"

// registerRequest accepts the legacy mobile-client field names "mpin" and "full_name"
// alongside "pin" and "display_name".
type registerRequest struct {
	Phone       string  `json:"phone"`
	PIN         string  `json:"pin"`
	MPIN        string  `json:"mpin"`
	DisplayName *string `json:"display_name"`
	FullName    *string `json:"full_name"`
}

type loginRequest struct {
	Phone string `json:"phone"`
	PIN   string `json:"pin"`
	MPIN  string `json:"mpin"`
}

type providerLoginRequest struct {
	IDToken string `json:"id_token"`
}

type registerResponse struct {
	UserID      string  `json:"user_id"`
	Phone       string  `json:"phone"`
	DisplayName *string `json:"display_name"`
}

type loginResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      string    `json:"user_id"`
	DisplayName *string   `json:"display_name"`
	Phone       string    `json:"phone"`
}

type validateResponse struct {
	UserID      string  `json:"user_id"`
	Phone       string  `json:"phone"`
	DisplayName *string `json:"display_name"`
}
