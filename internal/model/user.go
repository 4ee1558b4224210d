package model

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID    any    `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

type AdminUser struct {
	ID        any    `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	CreatedAt string `json:"created_at"`
}

// Me is the body of GET /auth/me.
type Me struct {
	Authenticated bool   `json:"authenticated"`
	ID            any    `json:"id,omitempty"`
	Email         string `json:"email,omitempty"`
	Role          Role   `json:"role,omitempty"`
}

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Vendor struct {
	Vendor string `json:"Vendor"`
	N      int    `json:"n"`
}
