package auth

// Policy decides which permissions an agent type may be granted when it
// requests them via authenticate_agent. The spec leaves the exact
// allowed-set-per-agent-type mapping unspecified beyond "intersects
// requested with allowed set for the agent type; if none allowed, defaults
// to {read}" — this server resolves that by granting read+write to every
// agent type unconditionally, and admin only to agent types the operator
// has explicitly allow-listed via configuration. This keeps "admin" from
// being self-service, matching the spirit of a capability a client cannot
// simply ask its way into.
type Policy struct {
	AdminAgentTypes map[string]bool
}

// NewPolicy builds a Policy from a list of agent types allowed to hold the
// admin permission.
func NewPolicy(adminAgentTypes []string) *Policy {
	m := make(map[string]bool, len(adminAgentTypes))
	for _, t := range adminAgentTypes {
		m[t] = true
	}
	return &Policy{AdminAgentTypes: m}
}

// Allowed returns the subset of requested permissions this agent type may
// hold, defaulting to {read} if the intersection is empty.
func (p *Policy) Allowed(agentType string, requested []Permission) []Permission {
	allowedSet := map[Permission]bool{PermRead: true, PermWrite: true}
	if p.AdminAgentTypes[agentType] {
		allowedSet[PermAdmin] = true
	}

	var granted []Permission
	for _, perm := range requested {
		if allowedSet[perm] {
			granted = append(granted, perm)
		}
	}
	if len(granted) == 0 {
		granted = []Permission{PermRead}
	}
	return granted
}
