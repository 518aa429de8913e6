package cohort

// identityCache memoizes identifier-to-AID resolution for one cohort.
// The invalidation policy is a full clear after every mutating catalog
// operation: alias inserts can retroactively change what a previously
// unresolvable identifier resolves to, so a partial keyed invalidation
// would be unsafe. This is intentional, not a missed optimization.
type identityCache struct {
	entries map[string]int64
}

func newIdentityCache() *identityCache {
	return &identityCache{entries: make(map[string]int64)}
}

func (c *identityCache) lookup(identifier string) (int64, bool) {
	aid, ok := c.entries[identifier]
	return aid, ok
}

func (c *identityCache) store(identifier string, aid int64) {
	c.entries[identifier] = aid
}

func (c *identityCache) clear() {
	c.entries = make(map[string]int64)
}

func (c *identityCache) size() int { return len(c.entries) }
