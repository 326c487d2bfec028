package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaylee-dev/payment-intermediary/internal/apperr"
)

func TestBreaker_TripsAfterFailureRatio(t *testing.T) {
	settings := DefaultSettings("test")
	settings.MinRequests = 4
	settings.FailureRatio = 0.5
	settings.Cooldown = 50 * time.Millisecond
	b := New(settings)

	// Three failures: ratio is not yet computed until the minimum request
	// count is reached.
	for i := 0; i < 3; i++ {
		_, err := b.Call(context.Background(), func() (Outcome, error) {
			return OutcomeTransient, errors.New("boom")
		})
		require.Error(t, err)
	}
	assert.False(t, b.IsOpen())

	// Fourth call pushes Requests to 4 with 4 failures: ratio 1.0 >= 0.5.
	_, err := b.Call(context.Background(), func() (Outcome, error) {
		return OutcomeTransient, errors.New("boom")
	})
	require.Error(t, err)
	assert.True(t, b.IsOpen())

	_, err = b.Call(context.Background(), func() (Outcome, error) {
		return OutcomeSuccess, nil
	})
	assert.ErrorIs(t, err, apperr.ErrBreakerOpen)
}

func TestBreaker_RejectDoesNotCountAsFailure(t *testing.T) {
	settings := DefaultSettings("test")
	settings.MinRequests = 2
	settings.FailureRatio = 0.5
	b := New(settings)

	for i := 0; i < 10; i++ {
		outcome, err := b.Call(context.Background(), func() (Outcome, error) {
			return OutcomeReject, nil
		})
		require.NoError(t, err)
		assert.Equal(t, OutcomeReject, outcome)
	}

	assert.False(t, b.IsOpen())
}

func TestBreaker_RecoversAfterCooldown(t *testing.T) {
	settings := DefaultSettings("test")
	settings.MinRequests = 1
	settings.FailureRatio = 0.5
	settings.Cooldown = 20 * time.Millisecond
	b := New(settings)

	_, err := b.Call(context.Background(), func() (Outcome, error) {
		return OutcomeTransient, errors.New("boom")
	})
	require.Error(t, err)
	assert.True(t, b.IsOpen())

	time.Sleep(30 * time.Millisecond)

	outcome, err := b.Call(context.Background(), func() (Outcome, error) {
		return OutcomeSuccess, nil
	})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "closed", b.State())
}
