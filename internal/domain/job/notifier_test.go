package job

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

type blockingWaiter struct {
	notify chan struct{}
}

func (w *blockingWaiter) WaitForNotification(ctx context.Context, _ model.JobType) error {
	select {
	case <-w.notify:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestNewNotifierRequiresWaiter(t *testing.T) {
	_, err := NewNotifier(NotifierOptions{})
	assert.ErrorIs(t, err, ErrWaiterRequired)
}

func TestNotifierSubscribeReceivesWakeup(t *testing.T) {
	waiter := &blockingWaiter{notify: make(chan struct{})}
	n, err := NewNotifier(NotifierOptions{
		Waiter:     waiter,
		WaitWindow: time.Second,
		Backoff:    10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, wake := n.Subscribe(model.JobTypeProcessOrder)
	defer unsub()

	waiter.notify <- struct{}{}

	select {
	case <-wake:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a wakeup after notification")
	}
}

func TestNotifierUnsubscribeClosesChannel(t *testing.T) {
	waiter := &blockingWaiter{notify: make(chan struct{})}
	n, err := NewNotifier(NotifierOptions{
		Waiter:     waiter,
		WaitWindow: time.Second,
		Backoff:    10 * time.Millisecond,
	})
	require.NoError(t, err)
	defer n.StopAll()

	unsub, wake := n.Subscribe(model.JobTypePacingContent)
	unsub()

	select {
	case _, open := <-wake:
		assert.False(t, open, "channel should be closed after unsubscribe")
	case <-time.After(time.Second):
		t.Fatal("expected channel to be closed")
	}

	// Unsubscribing twice must be safe.
	unsub()
}

func TestNotifierStopAllClosesSubscribers(t *testing.T) {
	waiter := &blockingWaiter{notify: make(chan struct{})}
	n, err := NewNotifier(NotifierOptions{
		Waiter:     waiter,
		WaitWindow: time.Second,
		Backoff:    10 * time.Millisecond,
	})
	require.NoError(t, err)

	_, wake1 := n.Subscribe(model.JobTypeProcessOrder)
	_, wake2 := n.Subscribe(model.JobTypePacingContent)

	n.StopAll()

	for _, wake := range []<-chan struct{}{wake1, wake2} {
		select {
		case _, open := <-wake:
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("expected channel to be closed after StopAll")
		}
	}
}
