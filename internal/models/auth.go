package models

import "github.com/golang-jwt/jwt/v5"

// Claims are the JWT claims accepted by the API
type Claims struct {
	User  string `json:"user"`
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
