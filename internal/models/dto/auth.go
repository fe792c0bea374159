package dto

import (
	"time"

	"github.com/hongminglow/recruit-portal/internal/models"
)

type RegisterRequest struct {
	FullName        string `json:"fullName"`
	NationalID      string `json:"nationalId"`
	Address         string `json:"address"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

type LoginRequest struct {
	NationalID string `json:"nationalId"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      models.User `json:"user"`
}
