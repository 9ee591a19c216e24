package rbac

// Default policy. Tenant and ownership checks happen in the attempt service.
var RolePermissions = map[string][]string{
	"student": {
		"test:view",
		"attempt:create",
		"attempt:save",
		"attempt:submit",
		"attempt:view-own",
	},
	"teacher": {
		"test:view",
		"attempt:view-own",
		"attempt:view-all",
		"attempt:review",
		"events:read",
	},
	"admin": {
		"*", // everything
	},
}
