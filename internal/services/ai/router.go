package ai

// Router maps a task type to the ordered list of candidate roles the
// dispatcher should try.
type Router struct {
	registry *Registry
}

// NewRouter creates a router over a registry.
func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// CandidateOrder returns the deduplicated preference-first role order for a
// task: the preferred role (override wins over the task default) followed by
// every other configured role in enumeration order. Roles without a live
// binding are excluded, so an empty result means no model is configured at
// all and the caller should treat the service as unavailable.
func (r *Router) CandidateOrder(task TaskType, override ModelRole) []ModelRole {
	preferred := task.PreferredRole()
	if override != "" {
		preferred = override
	}

	configured := r.registry.ConfiguredRoles()
	order := make([]ModelRole, 0, len(configured))
	for _, role := range configured {
		if role == preferred {
			order = append(order, role)
		}
	}
	for _, role := range configured {
		if role != preferred {
			order = append(order, role)
		}
	}
	return order
}
