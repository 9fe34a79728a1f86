package rbac

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHasPermissionMatrix(t *testing.T) {
	require.True(t, HasPermission(RoleAdmin, ModuleVentes, ActionDelete))
	require.True(t, HasPermission(RoleCommercial, ModuleClients, ActionCreate))
	require.False(t, HasPermission(RoleCommercial, ModuleClients, ActionDelete))
	require.False(t, HasPermission(RoleCommercial, ModuleUtilisateurs, ActionRead))
	require.False(t, HasPermission(Role("inconnu"), ModuleClients, ActionRead))
}

func TestWoocommerceOverride(t *testing.T) {
	// The external-sync module ignores the generic matrix entirely.
	require.True(t, HasPermission(RoleAdmin, ModuleWoocommerce, ActionRead))
	require.True(t, HasPermission(RoleDirecteurGeneral, ModuleWoocommerce, ActionUpdate))
	require.False(t, HasPermission(RoleDirecteurCommercial, ModuleWoocommerce, ActionRead))
	require.False(t, HasPermission(RoleCommercial, ModuleWoocommerce, ActionRead))
}

func TestIsRole(t *testing.T) {
	require.True(t, IsRole(RoleAdmin, RoleAdmin, RoleDirecteurGeneral))
	require.False(t, IsRole(RoleCommercial, RoleAdmin, RoleDirecteurGeneral))
	require.False(t, IsRole(RoleCommercial))
}
