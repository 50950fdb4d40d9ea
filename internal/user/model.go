package user

import "time"

type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
	// nullable profile fields
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	// Avatar is either an absolute URL or a path under the public static
	// root (/img/avatars/<file>).
	Avatar       *string `json:"avatar,omitempty"`
	PasswordHash string  `json:"-"`
	// GoogleID present => account uses Google sign-in, password change is
	// disabled.
	GoogleID  *string   `json:"-"`
	Activated bool      `json:"activated"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
