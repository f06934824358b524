package model

import "time"

// Roles.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleCashier = "cashier"
)

// User stores system users with role-based access. CanControlCashRegister is
// the capability the session state machine checks for open/close/movement
// operations; admins hold it implicitly.
type User struct {
	ID                     uint   `gorm:"primaryKey"`
	Username               string `gorm:"uniqueIndex;not null"`
	Name                   string `gorm:"not null"`
	PasswordHash           string `gorm:"not null"`
	Role                   string `gorm:"type:varchar(20);not null"`
	CanControlCashRegister bool   `gorm:"not null;default:false"`
	Active                 bool   `gorm:"not null;default:true"`
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (User) TableName() string { return "users" }

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// ControlsCashRegister reports whether the user may open/close sessions and
// record movements.
func (u *User) ControlsCashRegister() bool {
	return u.CanControlCashRegister || u.IsAdmin()
}
