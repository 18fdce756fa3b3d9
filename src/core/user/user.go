package user

import (
	"time"
)

// Role is the closed set of account roles. Roles are plain data; what a role
// may do is resolved through the capability table, not through subtyping.
type Role string

const (
	RoleAdmin           Role = "admin"
	RoleAccountant      Role = "accountant"
	RoleFinance         Role = "finance"
	RoleFinanceDirector Role = "finance_director"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAccountant, RoleFinance, RoleFinanceDirector:
		return true
	}
	return false
}

// Capabilities describes what a role is allowed to do beyond plain document
// ownership rules.
type Capabilities struct {
	ManageUsers     bool
	ProcessLedger   bool
	ApproveBudgets  bool
	ValidateReports bool
}

var roleCapabilities = map[Role]Capabilities{
	RoleAdmin:           {ManageUsers: true, ProcessLedger: true, ApproveBudgets: true, ValidateReports: true},
	RoleAccountant:      {ProcessLedger: true},
	RoleFinance:         {ProcessLedger: true, ApproveBudgets: true},
	RoleFinanceDirector: {ProcessLedger: true, ApproveBudgets: true, ValidateReports: true},
}

// CapabilitiesOf returns the capability set for a role. Unknown roles get the
// zero set.
func CapabilitiesOf(r Role) Capabilities {
	return roleCapabilities[r]
}

// User is an account in the directory. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         Role      `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Can reports whether the user's role grants the capability selected by pick.
func (u *User) Can(pick func(Capabilities) bool) bool {
	return pick(CapabilitiesOf(u.Role))
}
