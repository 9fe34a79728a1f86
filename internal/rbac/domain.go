package rbac

// Role is one of the fixed application roles.
type Role string

const (
	RoleAdmin               Role = "admin"
	RoleDirecteurGeneral    Role = "directeur_general"
	RoleDirecteurCommercial Role = "directeur_commercial"
	RoleCommercial          Role = "commercial"
)

// Module identifies a functional area gated by permissions.
type Module string

const (
	ModuleClients      Module = "clients"
	ModuleProduits     Module = "produits"
	ModuleVentes       Module = "ventes"
	ModuleLivraisons   Module = "livraisons"
	ModuleFacturation  Module = "facturation"
	ModuleWoocommerce  Module = "woocommerce"
	ModuleUtilisateurs Module = "utilisateurs"
)

// Action is a CRUD verb checked against the permission matrix.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Permissions is the per-module flag set granted to a role.
type Permissions struct {
	Read   bool
	Create bool
	Update bool
	Delete bool
}

func all() Permissions  { return Permissions{Read: true, Create: true, Update: true, Delete: true} }
func rw() Permissions   { return Permissions{Read: true, Create: true, Update: true} }
func read() Permissions { return Permissions{Read: true} }

// matrix maps role and module to the granted flags. Absent entries deny.
var matrix = map[Role]map[Module]Permissions{
	RoleAdmin: {
		ModuleClients:      all(),
		ModuleProduits:     all(),
		ModuleVentes:       all(),
		ModuleLivraisons:   all(),
		ModuleFacturation:  all(),
		ModuleWoocommerce:  all(),
		ModuleUtilisateurs: all(),
	},
	RoleDirecteurGeneral: {
		ModuleClients:      all(),
		ModuleProduits:     all(),
		ModuleVentes:       all(),
		ModuleLivraisons:   all(),
		ModuleFacturation:  all(),
		ModuleWoocommerce:  all(),
		ModuleUtilisateurs: read(),
	},
	RoleDirecteurCommercial: {
		ModuleClients:     all(),
		ModuleProduits:    rw(),
		ModuleVentes:      all(),
		ModuleLivraisons:  rw(),
		ModuleFacturation: rw(),
	},
	RoleCommercial: {
		ModuleClients:     rw(),
		ModuleProduits:    read(),
		ModuleVentes:      rw(),
		ModuleLivraisons:  read(),
		ModuleFacturation: read(),
	},
}

// woocommerceRoles is the route-level gate for the external-sync module.
// It overrides the generic matrix: only these roles may touch the module,
// whatever the matrix says for other roles.
var woocommerceRoles = map[Role]bool{
	RoleAdmin:            true,
	RoleDirecteurGeneral: true,
}

// HasPermission reports whether role may perform action on module.
func HasPermission(role Role, module Module, action Action) bool {
	if module == ModuleWoocommerce && !woocommerceRoles[role] {
		return false
	}
	perms, ok := matrix[role]
	if !ok {
		return false
	}
	p, ok := perms[module]
	if !ok {
		return false
	}
	switch action {
	case ActionRead:
		return p.Read
	case ActionCreate:
		return p.Create
	case ActionUpdate:
		return p.Update
	case ActionDelete:
		return p.Delete
	default:
		return false
	}
}

// IsRole reports whether role is one of the given roles.
func IsRole(role Role, roles ...Role) bool {
	for _, r := range roles {
		if role == r {
			return true
		}
	}
	return false
}
