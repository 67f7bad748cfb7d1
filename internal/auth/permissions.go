package auth

// Permission catalog. Permissions are values, not entities: a role stores
// the strings directly and the catalog exists so admin tooling can enumerate
// what the platform understands.
const (
	PermReadUsers   = "read:users"
	PermWriteUsers  = "write:users"
	PermDeleteUsers = "delete:users"
	PermReadRoles   = "read:roles"
	PermWriteRoles  = "write:roles"

	PermReadOwnProfile   = "read:own_profile"
	PermUpdateOwnProfile = "update:own_profile"

	PermReadModels       = "read:models"
	PermWriteModels      = "write:models"
	PermReadPipelines    = "read:pipelines"
	PermWritePipelines   = "write:pipelines"
	PermExecuteWorkflows = "execute:workflows"
	PermReadPredictions  = "read:predictions"
)

// BuiltinPermissions is every permission the scaffolded services declare.
var BuiltinPermissions = []string{
	PermReadUsers,
	PermWriteUsers,
	PermDeleteUsers,
	PermReadRoles,
	PermWriteRoles,
	PermReadOwnProfile,
	PermUpdateOwnProfile,
	PermReadModels,
	PermWriteModels,
	PermReadPipelines,
	PermWritePipelines,
	PermExecuteWorkflows,
	PermReadPredictions,
}

// Builtin role names. DefaultRoleName is assigned on self-registration;
// anything broader is granted by an admin afterwards.
const (
	RoleAdmin         = "admin"
	RoleDataScientist = "data_scientist"
	RoleRegularUser   = "regular_user"

	DefaultRoleName = RoleRegularUser
)

// BuiltinRoles seeds the role table on first start.
var BuiltinRoles = []Role{
	{
		Name:        RoleAdmin,
		Description: "Full platform access",
		Permissions: []string{PermissionWildcard},
	},
	{
		Name:        RoleDataScientist,
		Description: "Build and run models and pipelines",
		Permissions: []string{
			PermReadOwnProfile, PermUpdateOwnProfile,
			PermReadModels, PermWriteModels,
			PermReadPipelines, PermWritePipelines,
			PermExecuteWorkflows, PermReadPredictions,
		},
	},
	{
		Name:        RoleRegularUser,
		Description: "Default role for self-registered accounts",
		Permissions: []string{
			PermReadOwnProfile, PermUpdateOwnProfile,
			PermReadModels, PermReadPredictions,
		},
	},
}
