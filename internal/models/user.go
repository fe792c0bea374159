package models

import "time"

// User is a registered applicant. Gender, governorate and date of birth are
// derived from the national ID at registration time.
type User struct {
	ID          string    `json:"id"`
	FullName    string    `json:"fullName"`
	NationalID  string    `json:"nationalId"`
	Gender      string    `json:"gender"`
	Governorate string    `json:"governorate"`
	DateOfBirth string    `json:"dob"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}
