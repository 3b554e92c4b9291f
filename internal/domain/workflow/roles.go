package workflow

// Role identifiers used in workflow metadata and guard rules. Every
// authenticated principal implicitly holds RoleUser.
const (
	RoleAdmin   = "ROLE_ADMIN"
	RoleManager = "ROLE_MANAGER"
	RoleCleaner = "ROLE_CLEANER"
	RoleOwner   = "ROLE_OWNER"
	RoleUser    = "ROLE_USER"
)
