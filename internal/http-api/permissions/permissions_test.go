package permissions

import (
	"testing"

	"reviewhub/internal/http-api/models"

	"github.com/stretchr/testify/assert"
)

func TestDecide(t *testing.T) {
	policy := DefaultPolicy()

	anonymous := Caller{}
	reader := Caller{ID: "u1", Role: models.RoleUser, Authenticated: true}
	moderator := Caller{ID: "m1", Role: models.RoleModerator, Authenticated: true}
	admin := Caller{ID: "a1", Role: models.RoleAdmin, Authenticated: true}

	tests := []struct {
		name    string
		caller  Caller
		verb    Verb
		res     Resource
		ownerID string
		allowed bool
	}{
		{"anonymous reads catalog", anonymous, VerbRead, ResourceCatalog, "", true},
		{"anonymous cannot write catalog", anonymous, VerbWrite, ResourceCatalog, "", false},
		{"user cannot write catalog", reader, VerbWrite, ResourceCatalog, "", false},
		{"moderator writes catalog", moderator, VerbWrite, ResourceCatalog, "", true},
		{"admin writes catalog", admin, VerbWrite, ResourceCatalog, "", true},

		{"anonymous reads reviews", anonymous, VerbRead, ResourceAuthored, "u1", true},
		{"anonymous cannot write reviews", anonymous, VerbWrite, ResourceAuthored, "", false},
		{"author edits own review", reader, VerbWrite, ResourceAuthored, "u1", true},
		{"non-author cannot edit", reader, VerbWrite, ResourceAuthored, "u2", false},
		{"moderator edits any review", moderator, VerbWrite, ResourceAuthored, "u2", true},
		{"admin edits any review", admin, VerbWrite, ResourceAuthored, "u2", true},
		{"pre-load write check passes for any authenticated user", reader, VerbWrite, ResourceAuthored, "", true},

		{"anonymous has no profile", anonymous, VerbRead, ResourceProfile, "", false},
		{"owner reads own profile", reader, VerbRead, ResourceProfile, "u1", true},
		{"user cannot read foreign profile", reader, VerbRead, ResourceProfile, "u2", false},

		{"anonymous cannot list users", anonymous, VerbRead, ResourceUserDirectory, "", false},
		{"user cannot list users", reader, VerbRead, ResourceUserDirectory, "", false},
		{"moderator lists users", moderator, VerbRead, ResourceUserDirectory, "", true},
		{"admin lists users", admin, VerbRead, ResourceUserDirectory, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := policy.Decide(tt.caller, tt.verb, tt.res, tt.ownerID)
			assert.Equal(t, tt.allowed, d.Allowed)
			if !d.Allowed {
				assert.NotEmpty(t, d.Reason)
			}
		})
	}
}

func TestElevated(t *testing.T) {
	policy := DefaultPolicy()

	assert.False(t, policy.Elevated(models.RoleUser))
	assert.True(t, policy.Elevated(models.RoleModerator))
	assert.True(t, policy.Elevated(models.RoleAdmin))
	assert.False(t, policy.Elevated(""))
}
