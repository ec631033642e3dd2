package domain

// Capability names an action gated on the caller's role.
type Capability string

const (
	CapabilityManageCatalog Capability = "catalog:manage"
	CapabilityViewAnyCart   Capability = "cart:view_any"
)

var roleCapabilities = map[Role]map[Capability]struct{}{
	RoleAdmin: {
		CapabilityManageCatalog: {},
		CapabilityViewAnyCart:   {},
	},
	RoleUser: {},
}

// Identity is the resolved caller behind a session token.
type Identity struct {
	UserID string
	Role   Role
}

// Can reports whether the identity's role grants c.
func (i Identity) Can(c Capability) bool {
	_, ok := roleCapabilities[i.Role][c]
	return ok
}
