// AngelaMos | 2026
// dto.go

package user

import (
	"time"

	"github.com/carterperez-dev/templates/go-microblog/internal/post"
	"github.com/carterperez-dev/templates/go-microblog/internal/role"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64,username"`
	Email    string `json:"email"    validate:"required,email,max=64"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

type UpdateProfileRequest struct {
	Name     string `json:"name"     validate:"max=64"`
	Location string `json:"location" validate:"max=64"`
	AboutMe  string `json:"about_me" validate:"max=2000"`
}

type ProfileResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	AboutMe     string    `json:"about_me"`
	Role        string    `json:"role,omitempty"`
	MemberSince time.Time `json:"member_since"`
}

// PrivateProfileResponse is what a user sees about themselves.
type PrivateProfileResponse struct {
	ProfileResponse
	Email       string   `json:"email"`
	Permissions []string `json:"permissions"`
	IsAdmin     bool     `json:"is_admin"`
}

type PageResponse struct {
	User  ProfileResponse `json:"user"`
	Posts []post.Response `json:"posts"`
}

func ToProfileResponse(u *User) ProfileResponse {
	resp := ProfileResponse{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Location:    u.Location,
		AboutMe:     u.AboutMe,
		MemberSince: u.CreatedAt,
	}
	if u.Role != nil {
		resp.Role = u.Role.Name
	}
	return resp
}

func ToPrivateProfileResponse(u *User) PrivateProfileResponse {
	resp := PrivateProfileResponse{
		ProfileResponse: ToProfileResponse(u),
		Email:           u.Email,
		Permissions:     []string{},
		IsAdmin:         u.IsAdmin(),
	}
	if u.Role != nil {
		if u.Role.IsAdmin {
			resp.Permissions = role.AllPermissions().Names()
		} else {
			resp.Permissions = u.Role.Permissions.Names()
		}
	}
	return resp
}
