package profile

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/agridesk/portal/core"
)

// Roles
const (
	RoleFarmer     = "farmer"
	RoleEmployee   = "employee"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

var (
	AllRoles = []string{RoleFarmer, RoleEmployee, RoleSupervisor, RoleAdmin}

	// StaffRoles may create tasks and leave requests.
	StaffRoles = []string{RoleEmployee, RoleAdmin, RoleSupervisor}

	// ApprovalRoles may approve or reject leave requests.
	ApprovalRoles = []string{RoleAdmin, RoleSupervisor}
)

// Profile is the portal-facing identity record backing an authenticated user.
// Authentication itself is delegated to the external identity provider; the
// profile only carries what the portal needs for display and role gating.
type Profile struct {
	ID         string      `db:"id" json:"id"`
	Email      string      `db:"email" json:"email"`
	FullName   string      `db:"full_name" json:"full_name"`
	Role       string      `db:"role" json:"role"`
	Phone      null.String `db:"phone" json:"phone,omitempty"`
	Department null.String `db:"department" json:"department,omitempty"`
	Position   null.String `db:"position" json:"position,omitempty"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"` // UTC
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"` // UTC
}

func (p Profile) IsFarmer() bool     { return p.Role == RoleFarmer }
func (p Profile) IsEmployee() bool   { return p.Role == RoleEmployee }
func (p Profile) IsSupervisor() bool { return p.Role == RoleSupervisor }
func (p Profile) IsAdmin() bool      { return p.Role == RoleAdmin }

// HasAnyRole reports whether the profile's role is in the given set.
func (p Profile) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if p.Role == role {
			return true
		}
	}
	return false
}

// Info is the denormalized subset of a Profile resolved by joined queries.
type Info struct {
	FullName   string      `db:"full_name" json:"full_name"`
	Email      string      `db:"email" json:"email"`
	Phone      null.String `db:"phone" json:"phone,omitempty"`
	Department null.String `db:"department" json:"department,omitempty"`
	Position   null.String `db:"position" json:"position,omitempty"`
}

// NewProfile contains information needed to register a new Profile.
type NewProfile struct {
	ID       string `json:"id" validate:"required"` // assigned by the identity provider
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,role"`
	Phone    string `json:"phone"`
}

func (np *NewProfile) Validate(validate *validator.Validate) error {
	np.Email = core.CleanString(np.Email, true /* lower */)
	np.FullName = core.CleanString(np.FullName)
	np.Role = core.CleanString(np.Role, true /* lower */)
	return validate.Struct(np)
}
