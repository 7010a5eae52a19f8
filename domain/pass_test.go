package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStatus(t *testing.T) {
	cases := []struct {
		name    string
		current PassStatus
		action  PassAction
		want    PassStatus
		ok      bool
	}{
		{"provision pending", PassStatusPending, ActionProvision, PassStatusProvisioning, true},
		{"activate provisioning", PassStatusProvisioning, ActionActivate, PassStatusActive, true},
		{"suspend active", PassStatusActive, ActionSuspend, PassStatusSuspended, true},
		{"resume suspended", PassStatusSuspended, ActionResume, PassStatusActive, true},
		{"cancel pending", PassStatusPending, ActionCancel, PassStatusCancelled, true},
		{"delete active", PassStatusActive, ActionDelete, PassStatusDeleted, true},
		{"delete suspended", PassStatusSuspended, ActionDelete, PassStatusDeleted, true},
		{"resume pending is illegal", PassStatusPending, ActionResume, "", false},
		{"suspend pending is illegal", PassStatusPending, ActionSuspend, "", false},
		{"delete deleted is illegal", PassStatusDeleted, ActionDelete, "", false},
		{"anything from cancelled is illegal", PassStatusCancelled, ActionResume, "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, ok := NextStatus(tc.current, tc.action)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.want, next)
			}
		})
	}
}

func TestPassStatusTerminal(t *testing.T) {
	assert.True(t, PassStatusDeleted.Terminal())
	assert.True(t, PassStatusCancelled.Terminal())
	assert.False(t, PassStatusActive.Terminal())
	assert.False(t, PassStatusPending.Terminal())
}

func TestTokenStateExpired(t *testing.T) {
	obtained := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	tok := &TokenState{AccessToken: "x", ExpiresIn: 3600, ObtainedAt: obtained}

	assert.False(t, tok.Expired(obtained, DefaultExpiryBuffer))
	// Just inside the buffer boundary (3540s for a 3600s token).
	assert.False(t, tok.Expired(obtained.Add(3539*time.Second), DefaultExpiryBuffer))
	// At and past the boundary.
	assert.True(t, tok.Expired(obtained.Add(3540*time.Second), DefaultExpiryBuffer))
	assert.True(t, tok.Expired(obtained.Add(4000*time.Second), DefaultExpiryBuffer))

	var missing *TokenState
	assert.True(t, missing.Expired(obtained, DefaultExpiryBuffer))
}

func TestSubjectResource(t *testing.T) {
	ev := &CloudEvent{Subject: "pass/45d3d21e"}
	kind, id := ev.SubjectResource()
	assert.Equal(t, "pass", kind)
	assert.Equal(t, "45d3d21e", id)

	ev = &CloudEvent{Subject: "bare-id"}
	kind, id = ev.SubjectResource()
	assert.Empty(t, kind)
	assert.Equal(t, "bare-id", id)
}
