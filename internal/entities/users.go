package entities

import "time"

const (
	RoleAdmin   = "admin"
	RoleStudent = "student"

	RoleAdminID   uint = 1
	RoleStudentID uint = 2
)

// Role is a row of the fixed roles lookup table.
type Role struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:20;not null" json:"name"`
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"column:password;size:255;not null" json:"-"`
	RoleID       uint      `gorm:"index;not null" json:"role_id"`
	Role         Role      `gorm:"foreignKey:RoleID" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// PublicUser is the client-facing projection of a User.
type PublicUser struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	RoleID    uint      `json:"role_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role.Name,
		RoleID:    u.RoleID,
		CreatedAt: u.CreatedAt,
	}
}

// UserUpdate carries the optional fields of a partial user update. A nil
// field is left unchanged.
type UserUpdate struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	RoleID   *uint   `json:"role_id"`
}

// IsEmpty reports whether no field is present.
func (u UserUpdate) IsEmpty() bool {
	return u.Name == nil && u.Email == nil && u.Password == nil && u.RoleID == nil
}
