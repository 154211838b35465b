package account

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"fullName"`
	Role         string    `json:"role"` // admin | coordinator
	CreatedAt    time.Time `json:"createdAt"`
}
