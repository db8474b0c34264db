package middleware

import (
	"errors"
	"net/http"
	"testing"

	"github.com/dicegame/dice-api/internal/core/domain"
)

func TestPolicy_UnlistedRouteRequiresAuth(t *testing.T) {
	rule := testPolicy.Rule(http.MethodGet, "/unlisted")
	if rule.Public || len(rule.Roles) != 0 {
		t.Fatalf("unlisted route must default to authenticated, got %+v", rule)
	}
}

func TestPolicy_HeadFallsBackToGet(t *testing.T) {
	if !testPolicy.Rule(http.MethodHead, "/health").Public {
		t.Fatal("HEAD must use the GET rule")
	}
}

func TestPolicy_MethodIsPartOfKey(t *testing.T) {
	if testPolicy.Rule(http.MethodGet, "/auth/login").Public {
		t.Fatal("GET /auth/login is not listed and must not be public")
	}
}

func TestAuthorize(t *testing.T) {
	anon := domain.Principal{}
	player := domain.Principal{Subject: "p", Roles: []string{domain.RolePlayer}}
	admin := domain.Principal{Subject: "a", Roles: []string{domain.RoleAdmin}}
	adminOnly := Rule{Roles: []string{domain.RoleAdmin}}

	cases := []struct {
		name string
		rule Rule
		p    domain.Principal
		want error
	}{
		{"public anonymous", Rule{Public: true}, anon, nil},
		{"public player", Rule{Public: true}, player, nil},
		{"authenticated anonymous", Rule{}, anon, domain.ErrUnauthenticated},
		{"authenticated player", Rule{}, player, nil},
		{"admin-only player", adminOnly, player, domain.ErrForbidden},
		{"admin-only admin", adminOnly, admin, nil},
		{"admin-only anonymous", adminOnly, anon, domain.ErrUnauthenticated},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := authorize(tc.rule, tc.p)
			if tc.want == nil && err != nil {
				t.Fatalf("want nil, got %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, err)
			}
		})
	}
}
