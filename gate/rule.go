package gate

// Rule declares who may perform an operation.
type Rule struct {
	// Roles lists the roles allowed to perform the operation. Empty means any
	// authenticated principal.
	Roles []string
	// Owner requires the target resource to belong to the principal.
	Owner bool
	// Bypass lists roles exempt from the ownership requirement.
	Bypass []string
	// Active requires the principal's account to be active.
	Active bool
}

// Table maps an operation to its rule. Keys may use wildcards ("category:*").
type Table map[Permission]Rule

// Lookup finds the rule for perm: exact entries win over wildcard entries.
func (t Table) Lookup(perm Permission) (Rule, bool) {
	if r, ok := t[perm]; ok {
		return r, true
	}
	for key, r := range t {
		if key.Matches(perm) {
			return r, true
		}
	}
	return Rule{}, false
}

// Ownable is implemented by resources that have an owner.
type Ownable interface {
	GetUserID() uint
}
