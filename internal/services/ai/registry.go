package ai

// Binding associates a live backend handle with the capabilities the role is
// declared to have. Structured-output support is an explicit flag rather than
// something inferred from the model name.
type Binding struct {
	Backend Backend
	// SupportsJSONOutput declares whether the bound model honors a
	// structured JSON output requirement.
	SupportsJSONOutput bool
}

// Registry holds the role to backend bindings. Bindings are set once at
// startup and read-only afterwards, so reads need no locking.
type Registry struct {
	bindings map[ModelRole]Binding
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{bindings: make(map[ModelRole]Binding)}
}

// Bind associates a backend with a role, overwriting any prior binding.
// A nil backend is ignored, leaving the role unconfigured.
func (r *Registry) Bind(role ModelRole, binding Binding) {
	if binding.Backend == nil {
		return
	}
	r.bindings[role] = binding
}

// Resolve returns the live binding for a role.
func (r *Registry) Resolve(role ModelRole) (Binding, bool) {
	b, ok := r.bindings[role]
	return b, ok
}

// ConfiguredRoles returns all roles with a live binding, in the fixed
// enumeration order used for deterministic candidate lists.
func (r *Registry) ConfiguredRoles() []ModelRole {
	roles := make([]ModelRole, 0, len(r.bindings))
	for _, role := range allRoles {
		if _, ok := r.bindings[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
