package auth

import "time"

// AccessClaims are the claims carried in a v4.local access token. The token
// is encrypted, so clients cannot read them without the key.
type AccessClaims struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`

	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
