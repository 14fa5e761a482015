package rbac

// Role names. Keep these stable; they are part of the token contract.
const (
	RoleAdmin    = "admin"
	RoleOperator = "operator"
)

func IsAdmin(role string) bool { return role == RoleAdmin }
