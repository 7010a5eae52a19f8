package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
	"github.com/walletgate/origo/platform/memapi"
)

func newPassFixture(t *testing.T) (*PassService, *memapi.Platform) {
	t.Helper()
	mem := memapi.New()
	return NewPassService(mem), mem
}

func TestCreatePassValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPassFixture(t)

	tests := []struct {
		name       string
		userID     string
		templateID string
	}{
		{"missing user", "", "tpl-employee"},
		{"missing template", "usr-1", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreatePass(ctx, tt.userID, tt.templateID)
			require.Error(t, err)
			assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
		})
	}
}

func TestPassLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, mem := newPassFixture(t)

	pass, err := svc.CreatePass(ctx, "usr-1", "tpl-employee")
	require.NoError(t, err)
	assert.Equal(t, domain.PassStatusPending, pass.Status)
	assert.NotEmpty(t, pass.Credentials)

	require.NoError(t, mem.ActivatePass(pass.ID))

	suspended, err := svc.SuspendPass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PassStatusSuspended, suspended.Status)

	// Retried suspend is a no-op success.
	again, err := svc.SuspendPass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PassStatusSuspended, again.Status)

	resumed, err := svc.ResumePass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PassStatusActive, resumed.Status)

	again, err = svc.ResumePass(ctx, pass.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PassStatusActive, again.Status)
}

func TestSuspendFromPendingRejected(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPassFixture(t)

	pass, err := svc.CreatePass(ctx, "usr-1", "tpl-employee")
	require.NoError(t, err)

	_, err = svc.SuspendPass(ctx, pass.ID)
	require.Error(t, err)
	assert.Equal(t, serrors.CodeInvalidState, serrors.CodeOf(err))
	assert.False(t, serrors.IsRetryable(err))
}

func TestSuspendUnknownPass(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPassFixture(t)

	_, err := svc.SuspendPass(ctx, "pass-missing")
	require.Error(t, err)
	assert.True(t, serrors.IsNotFound(err))
}

func TestDeletePass(t *testing.T) {
	ctx := context.Background()
	svc, mem := newPassFixture(t)

	t.Run("pending ends cancelled", func(t *testing.T) {
		pass, err := svc.CreatePass(ctx, "usr-1", "tpl-employee")
		require.NoError(t, err)

		require.NoError(t, svc.DeletePass(ctx, pass.ID))
		got, err := svc.GetPass(ctx, pass.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PassStatusCancelled, got.Status)
	})

	t.Run("active ends deleted", func(t *testing.T) {
		pass, err := svc.CreatePass(ctx, "usr-2", "tpl-employee")
		require.NoError(t, err)
		require.NoError(t, mem.ActivatePass(pass.ID))

		require.NoError(t, svc.DeletePass(ctx, pass.ID))
		got, err := svc.GetPass(ctx, pass.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PassStatusDeleted, got.Status)
	})

	t.Run("repeat delete is a no-op", func(t *testing.T) {
		pass, err := svc.CreatePass(ctx, "usr-3", "tpl-employee")
		require.NoError(t, err)
		require.NoError(t, svc.DeletePass(ctx, pass.ID))
		require.NoError(t, svc.DeletePass(ctx, pass.ID))
	})

	t.Run("unknown pass is a no-op", func(t *testing.T) {
		require.NoError(t, svc.DeletePass(ctx, "pass-never-existed"))
	})
}

func TestCancelPass(t *testing.T) {
	ctx := context.Background()
	svc, mem := newPassFixture(t)

	t.Run("pending pass", func(t *testing.T) {
		pass, err := svc.CreatePass(ctx, "usr-1", "tpl-employee")
		require.NoError(t, err)

		require.NoError(t, svc.CancelPass(ctx, pass.ID))
		got, err := svc.GetPass(ctx, pass.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.PassStatusCancelled, got.Status)

		// Repeat cancel is a no-op.
		require.NoError(t, svc.CancelPass(ctx, pass.ID))
	})

	t.Run("active pass rejected", func(t *testing.T) {
		pass, err := svc.CreatePass(ctx, "usr-2", "tpl-employee")
		require.NoError(t, err)
		require.NoError(t, mem.ActivatePass(pass.ID))

		err = svc.CancelPass(ctx, pass.ID)
		require.Error(t, err)
		assert.Equal(t, serrors.CodeInvalidState, serrors.CodeOf(err))
	})

	t.Run("unknown pass is a no-op", func(t *testing.T) {
		require.NoError(t, svc.CancelPass(ctx, "pass-missing"))
	})
}

func TestIssuanceTokens(t *testing.T) {
	ctx := context.Background()
	svc, _ := newPassFixture(t)

	pass, err := svc.CreatePass(ctx, "usr-1", "tpl-employee")
	require.NoError(t, err)

	first, err := svc.IssuanceToken(ctx, pass.ID)
	require.NoError(t, err)
	second, err := svc.IssuanceToken(ctx, pass.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.Token, second.Token, "each request mints a fresh token")
	assert.Equal(t, pass.ID, first.PassID)

	t.Run("unknown pass", func(t *testing.T) {
		_, err := svc.IssuanceToken(ctx, "pass-missing")
		require.Error(t, err)
		assert.True(t, serrors.IsNotFound(err))
	})

	t.Run("terminal pass", func(t *testing.T) {
		require.NoError(t, svc.DeletePass(ctx, pass.ID))
		_, err := svc.IssuanceToken(ctx, pass.ID)
		require.Error(t, err)
		assert.Equal(t, serrors.CodeInvalidState, serrors.CodeOf(err))
	})
}
