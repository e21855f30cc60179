package dto

import "natours_backend/internal/feature/auth/domain/entity"

// UserRes is the public view of a user.
type UserRes struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Photo string `json:"photo"`
	Role  string `json:"role"`
}

func NewUserRes(u *entity.User) UserRes {
	return UserRes{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Photo: u.Photo,
		Role:  string(u.Role),
	}
}

func NewUserList(users []entity.User) []UserRes {
	out := make([]UserRes, 0, len(users))
	for i := range users {
		out = append(out, NewUserRes(&users[i]))
	}
	return out
}

// TokenRes is returned by every endpoint that logs the user in.
type TokenRes struct {
	Status string   `json:"status"`
	Token  string   `json:"token"`
	Data   UserData `json:"data"`
}

type UserData struct {
	User UserRes `json:"user"`
}

// MessageRes is a status with a human readable message.
type MessageRes struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
