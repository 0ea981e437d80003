// Package authz is the policy decision point. It resolves principals into an
// authorization context and answers, per operation and resource, whether the
// principal may proceed. Decisions are computed fresh from the store on every
// request; nothing is cached across requests.
package authz

// Context is the authorization context of one authenticated principal,
// threaded explicitly through every gated operation.
type Context struct {
	// UserID is the resolved principal id.
	UserID uint64
	// Admin short-circuits every group-based check to allow.
	Admin bool
	// GroupIDs are the ids of the principal's live group memberships.
	GroupIDs []uint64
}

// MemberOfAny reports whether the principal belongs to at least one of the
// given groups.
func (c *Context) MemberOfAny(groupIDs []uint64) bool {
	if len(groupIDs) == 0 || len(c.GroupIDs) == 0 {
		return false
	}

	granted := make(map[uint64]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		granted[id] = struct{}{}
	}

	for _, id := range c.GroupIDs {
		if _, ok := granted[id]; ok {
			return true
		}
	}

	return false
}
