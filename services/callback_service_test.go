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

func TestRegisterCallbackValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewCallbackService(memapi.New())

	tests := []struct {
		name   string
		url    string
		header string
		secret string
	}{
		{"plain http", "http://hooks.example.com/origo", "", ""},
		{"no host", "not-a-url", "", ""},
		{"header without secret", "https://hooks.example.com/origo", "X-Hook-Secret", ""},
		{"secret without header", "https://hooks.example.com/origo", "", "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.url, domain.AllEventsFilter(), tt.header, tt.secret)
			require.Error(t, err)
			assert.Equal(t, serrors.CodeValidation, serrors.CodeOf(err))
		})
	}
}

func TestRegisterCallbackRedactsSecret(t *testing.T) {
	ctx := context.Background()
	svc := NewCallbackService(memapi.New())

	reg, err := svc.Register(ctx, "https://hooks.example.com/origo", domain.PassEventsFilter(), "X-Hook-Secret", "s3cret")
	require.NoError(t, err)

	assert.NotEmpty(t, reg.ID)
	assert.Empty(t, reg.Secret, "secret must never come back from the registry")
	assert.Equal(t, "X-Hook-Secret", reg.HTTPHeader)
	assert.Equal(t, domain.PassEventsFilter().EventTypes, reg.Filter.EventTypes)
}

func TestListCallbacksRedactsSecrets(t *testing.T) {
	ctx := context.Background()
	svc := NewCallbackService(memapi.New())

	_, err := svc.Register(ctx, "https://hooks.example.com/a", domain.AllEventsFilter(), "X-Hook-Secret", "s3cret")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "https://hooks.example.com/b", domain.UserEventsFilter(), "", "")
	require.NoError(t, err)

	regs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, regs, 2)
	for _, reg := range regs {
		assert.Empty(t, reg.Secret)
	}
}

func TestDeleteCallback(t *testing.T) {
	ctx := context.Background()
	svc := NewCallbackService(memapi.New())

	reg, err := svc.Register(ctx, "https://hooks.example.com/origo", domain.AllEventsFilter(), "", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, reg.ID))

	err = svc.Delete(ctx, reg.ID)
	require.Error(t, err)
	assert.True(t, serrors.IsNotFound(err))
}
