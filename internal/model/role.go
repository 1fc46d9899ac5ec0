package model

// Role names known to the application.
const (
	RoleUser          = "User"
	RoleModerator     = "Moderator"
	RoleAdministrator = "Administrator"

	// DefaultRoleName is the role handed to new users who are not the
	// configured administrator.
	DefaultRoleName = RoleUser
)

// Role is a row of the `roles` table: a named permission mask.  Exactly one
// role carries IsDefault once the table has been seeded.
type Role struct {
	ID          uint64     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	Permissions Permission `db:"permissions" json:"permissions"`
	IsDefault   bool       `db:"is_default" json:"is_default"`
}

func (r *Role) HasPermission(p Permission) bool { return HasPermission(r.Permissions, p) }

func (r *Role) AddPermission(p Permission) { r.Permissions = AddPermission(r.Permissions, p) }

func (r *Role) RemovePermission(p Permission) { r.Permissions = RemovePermission(r.Permissions, p) }

func (r *Role) ResetPermissions() { r.Permissions = 0 }

// roleTable is the seed table: role name to the permissions it grants.
// Order matters only for deterministic seeding.
var roleTable = []struct {
	name  string
	perms []Permission
}{
	{RoleUser, []Permission{PermFollow, PermComment, PermWrite}},
	{RoleModerator, []Permission{PermFollow, PermComment, PermWrite, PermModerate}},
	{RoleAdministrator, []Permission{PermFollow, PermComment, PermWrite, PermModerate, PermAdmin}},
}

// SeedRoles returns the target state of the roles table.  Each role starts
// from an empty mask so re-seeding never accumulates stale permissions.
func SeedRoles() []Role {
	out := make([]Role, 0, len(roleTable))
	for _, entry := range roleTable {
		r := Role{Name: entry.name}
		r.ResetPermissions()
		for _, p := range entry.perms {
			r.AddPermission(p)
		}
		r.IsDefault = r.Name == DefaultRoleName
		out = append(out, r)
	}
	return out
}
