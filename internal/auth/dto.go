// AngelaMos | 2026
// dto.go

package auth

import (
	"github.com/carterperez-dev/templates/go-microblog/internal/session"
	"github.com/carterperez-dev/templates/go-microblog/internal/user"
)

type LoginRequest struct {
	Username   string `json:"username"    validate:"required,max=64"`
	Password   string `json:"password"    validate:"required,max=128"`
	RememberMe bool   `json:"remember_me"`
}

type LoginPageResponse struct {
	Next    string          `json:"next"`
	Flashes []session.Flash `json:"flashes,omitempty"`
}

type RegisterResponse struct {
	User user.PrivateProfileResponse `json:"user"`
}
