package intent

import "github.com/tdcarpool/carpool/backend/internal/model/role"

// Resolution describes how a question was answered.
type Resolution struct {
	Rule    string `json:"rule,omitempty"`
	Matched bool   `json:"matched"`
	Reply   string `json:"reply"`
}

// Resolver turns free text plus the caller's role into a canned reply.
type Resolver struct {
	table *Table
}

// NewResolver binds a resolver to a rule table.
func NewResolver(table *Table) *Resolver {
	return &Resolver{table: table}
}

// Resolve answers text for the given role. It is total: unmatched input,
// including the empty string, gets the fallback text.
func (r *Resolver) Resolve(text string, who role.Role) string {
	return r.Lookup(text, who).Reply
}

// Lookup is Resolve with the matching rule reported alongside the reply.
func (r *Resolver) Lookup(text string, who role.Role) Resolution {
	rule, ok := r.table.Match(text)
	if !ok {
		return Resolution{Reply: r.table.Fallback()}
	}
	return Resolution{Rule: rule.Name, Matched: true, Reply: rule.Template.Render(who)}
}

// Table exposes the underlying rule table.
func (r *Resolver) Table() *Table { return r.table }
