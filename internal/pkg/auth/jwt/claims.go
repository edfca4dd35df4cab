package jwt

import "github.com/golang-jwt/jwt"

// Payload defines the structure of the JSON Web Token (JWT) claims for the chat backend.
// It includes standard claims required by the JWT specification and custom claims
// necessary for identifying and authorizing users.
type Payload struct {
	// StandardClaims embeds the necessary JWT standard fields such as Exp (Expiration),
	// Iat (Issued At), and Iss (Issuer). These are crucial for token validity checks.
	jwt.StandardClaims `json:"standard_claims"`

	// UserID is the unique identifier of the authenticated account.
	UserID string `json:"userId"`

	// Role is the account role ("user" or "admin"), used by handlers to scope access.
	Role string `json:"role"`
}
