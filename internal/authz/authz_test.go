package authz

import (
	"errors"
	"testing"

	"bodyshop/internal/auth"
)

func TestAuthorizeRoles(t *testing.T) {
	tests := []struct {
		name     string
		identity *auth.Identity
		policy   Policy
		want     error
	}{
		{
			name:     "nil identity fails closed",
			identity: nil,
			policy:   Roles(RoleAdmin),
			want:     ErrUnauthorized,
		},
		{
			name:     "role member allowed",
			identity: &auth.Identity{UserID: 1, Role: RoleStaff},
			policy:   Roles(RoleStaff, RoleAdmin),
			want:     nil,
		},
		{
			name:     "role not member denied",
			identity: &auth.Identity{UserID: 1, Role: RoleClient},
			policy:   Roles(RoleStaff, RoleAdmin),
			want:     ErrForbidden,
		},
		{
			name:     "unrelated roles in set grant nothing",
			identity: &auth.Identity{UserID: 1, Role: RoleClient},
			policy:   Roles(RoleStaff, "janitor"),
			want:     ErrForbidden,
		},
		{
			name:     "any authenticated allows client",
			identity: &auth.Identity{UserID: 1, Role: RoleClient},
			policy:   AnyAuthenticated(),
			want:     nil,
		},
		{
			name:     "any authenticated still requires identity",
			identity: nil,
			policy:   AnyAuthenticated(),
			want:     ErrUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.identity, tt.policy); !errors.Is(got, tt.want) && got != tt.want {
				t.Errorf("Authorize() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorizeAdminAllowlist(t *testing.T) {
	policy := AdminAllowlist([]string{"owner@shop.example"})

	allowlisted := &auth.Identity{UserID: 2, Role: RoleStaff, Email: "Owner@shop.example"}
	if err := Authorize(allowlisted, policy); err != nil {
		t.Errorf("allowlisted email: %v, want allow", err)
	}

	adminRole := &auth.Identity{UserID: 3, Role: RoleAdmin, Email: "someone@else.example"}
	if err := Authorize(adminRole, policy); err != nil {
		t.Errorf("admin role: %v, want allow", err)
	}

	neither := &auth.Identity{UserID: 4, Role: RoleStaff, Email: "staff@shop.example"}
	if err := Authorize(neither, policy); !errors.Is(err, ErrForbidden) {
		t.Errorf("neither: %v, want ErrForbidden", err)
	}

	noEmail := &auth.Identity{UserID: 5, Role: RoleClient}
	if err := Authorize(noEmail, policy); !errors.Is(err, ErrForbidden) {
		t.Errorf("no email claim: %v, want ErrForbidden", err)
	}
}

func TestAuthorizeOwner(t *testing.T) {
	staffOnly := Roles(RoleStaff, RoleAdmin)

	owner := &auth.Identity{UserID: 7, Role: RoleClient}
	if err := AuthorizeOwner(owner, 7, staffOnly); err != nil {
		t.Errorf("owner: %v, want allow", err)
	}

	other := &auth.Identity{UserID: 7, Role: RoleClient}
	if err := AuthorizeOwner(other, 9, staffOnly); !errors.Is(err, ErrForbidden) {
		t.Errorf("non-owner client: %v, want ErrForbidden", err)
	}

	staff := &auth.Identity{UserID: 12, Role: RoleStaff}
	if err := AuthorizeOwner(staff, 9, staffOnly); err != nil {
		t.Errorf("staff fallback: %v, want allow", err)
	}

	if err := AuthorizeOwner(nil, 9, staffOnly); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("nil identity: %v, want ErrUnauthorized", err)
	}
}
