package middleware

import (
	"net/http"
	"strings"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// Rule describes who may call a route. The zero Rule requires an
// authenticated caller with any role.
type Rule struct {
	Public bool
	Roles  []string
}

// Policy maps "METHOD /path" route patterns, exactly as registered with Echo,
// to access rules. Routes missing from the policy require authentication.
type Policy map[string]Rule

// Key builds a policy key for method and the Echo route pattern path.
func Key(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

// Rule returns the rule for method and path. HEAD falls back to the GET rule.
func (p Policy) Rule(method, path string) Rule {
	if r, ok := p[Key(method, path)]; ok {
		return r
	}
	if method == http.MethodHead {
		if r, ok := p[Key(http.MethodGet, path)]; ok {
			return r
		}
	}
	return Rule{}
}

// authorize applies rule to principal. Public routes admit anyone; the rest
// need an identity and, when the rule names roles, at least one of them.
func authorize(rule Rule, p domain.Principal) error {
	if rule.Public {
		return nil
	}
	if p.Anonymous() {
		return domain.ErrUnauthenticated
	}
	if len(rule.Roles) > 0 && !p.HasAnyRole(rule.Roles...) {
		return domain.ErrForbidden
	}
	return nil
}
