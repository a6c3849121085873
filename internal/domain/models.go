package domain

import "time"

// RoleEmployee is the baseline role assigned when a new user is created
// without an explicit role list.
const RoleEmployee = "Employee"

type User struct {
	ID        string
	Username  string
	Roles     []string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type UserWithPassword struct {
	User
	PasswordHash string
}

// Note is owned content referencing a User. The directory service only
// consults note existence: a user with notes cannot be deleted.
type Note struct {
	ID        string
	UserID    string
	Title     string
	Text      string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
