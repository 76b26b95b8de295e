package domain

type Role string

const (
	RoleUser       Role = "user"
	RoleAdmin      Role = "admin"
	RoleSuperadmin Role = "superadmin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperadmin:
		return true
	}
	return false
}

// IDPrefix is the identifier prefix minted for accounts of this role.
func (r Role) IDPrefix() string {
	switch r {
	case RoleAdmin:
		return "admingamex-"
	case RoleSuperadmin:
		return "superadmingamex-"
	default:
		return "usergamex-"
	}
}
