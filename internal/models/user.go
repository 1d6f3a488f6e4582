package models

import (
	"fmt"
	"time"
)

// Role is the coarse role of a user. Only RoleAdmin carries special powers in
// the task workflow; everybody else is governed by the manager hierarchy.
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleDepartmentHead Role = "department_head"
	RoleStaff          Role = "staff"
)

func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleAdmin, RoleDepartmentHead, RoleStaff:
		return r, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

type User struct {
	ID             int64     `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"-"` // не отдаём наружу
	FullName       string    `json:"full_name"`
	Email          string    `json:"email,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	Role           Role      `json:"role"`
	Department     string    `json:"department"`
	ManagerID      *int64    `json:"manager_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	Privileges     []string  `json:"privileges,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}
