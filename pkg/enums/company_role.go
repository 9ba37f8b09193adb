package enums

import "fmt"

// CompanyRole represents a company-level permissions role.
type CompanyRole string

const (
	CompanyRoleMember CompanyRole = "member"
	CompanyRoleAdmin  CompanyRole = "admin"
)

var validCompanyRoles = []CompanyRole{
	CompanyRoleMember,
	CompanyRoleAdmin,
}

// String implements fmt.Stringer.
func (r CompanyRole) String() string {
	return string(r)
}

// IsValid reports whether the value is a known CompanyRole.
func (r CompanyRole) IsValid() bool {
	for _, candidate := range validCompanyRoles {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseCompanyRole converts raw input into a CompanyRole.
func ParseCompanyRole(value string) (CompanyRole, error) {
	for _, candidate := range validCompanyRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid company role %q", value)
}
