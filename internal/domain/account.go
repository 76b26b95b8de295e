package domain

import "time"

// Account is a row of the users table. PasswordVersion increases on every
// password change and binds outstanding reset tokens to a single use.
type Account struct {
	UserID          string     `gorm:"primaryKey;size:64" json:"user_id"`
	Email           string     `gorm:"size:255;uniqueIndex;not null" json:"email"`
	Username        string     `gorm:"size:255;uniqueIndex;not null" json:"username"`
	PasswordHash    string     `gorm:"column:password;size:255;not null" json:"-"`
	Role            Role       `gorm:"size:16;index;not null;default:user" json:"role"`
	PasswordVersion int64      `gorm:"not null;default:0" json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       *time.Time `gorm:"autoUpdateTime:false" json:"updated_at,omitempty"`
}

func (Account) TableName() string { return "users" }

type AccountView struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (a Account) View(withRole bool) AccountView {
	v := AccountView{UserID: a.UserID, Email: a.Email, Username: a.Username, CreatedAt: a.CreatedAt}
	if withRole {
		v.Role = a.Role
	}
	return v
}
