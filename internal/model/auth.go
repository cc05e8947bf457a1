package model

import "time"

type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginUser struct {
	Username string `json:"username"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
}

type SignupAdmin struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type SignupResponse struct {
	Message string      `json:"message"`
	Admin   SignupAdmin `json:"admin"`
}

type AuthMeResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

type VerifyResponse struct {
	Valid bool           `json:"valid"`
	User  AuthMeResponse `json:"user"`
}

// AuthUser is the identity carried by a verified token.
type AuthUser struct {
	Username  string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

type Admin struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
