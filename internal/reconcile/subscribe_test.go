package reconcile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/hotsnip/internal/testutils"
)

func TestSubscribeReceivesEveryPass(t *testing.T) {
	h := newHarness(t, map[string]string{"a [Ctrl+1].snip": "one"})
	reports := h.manager.Subscribe()

	require.NoError(t, h.manager.Start(context.Background()))
	first := <-reports
	assert.Equal(t, 1, first.Count(StatusRegistered))
	assert.Same(t, h.manager.LastReport(), first)

	testutils.WriteMemTemplate(t, h.fs, "b [Ctrl+2].snip", "two")
	second := h.manager.Reconcile(context.Background())
	assert.Same(t, second, <-reports)
	assert.NotEqual(t, first.PassID, second.PassID)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	h := newHarness(t, nil)
	reports := h.manager.Subscribe()

	h.manager.Unsubscribe(reports)
	_, ok := <-reports
	assert.False(t, ok)

	// A second call is a no-op.
	h.manager.Unsubscribe(reports)
	h.manager.Reconcile(context.Background())
}

func TestSlowSubscriberDoesNotBlockPasses(t *testing.T) {
	h := newHarness(t, map[string]string{"a [Ctrl+1].snip": "one"})
	reports := h.manager.Subscribe()

	for i := 0; i < reportBuffer+5; i++ {
		require.NotNil(t, h.manager.Reconcile(context.Background()))
	}
	assert.Len(t, reports, reportBuffer)
}

func TestStopClosesSubscribers(t *testing.T) {
	h := newHarness(t, nil)
	reports := h.manager.Subscribe()

	require.NoError(t, h.manager.Stop())
	_, ok := <-reports
	assert.False(t, ok)

	late := h.manager.Subscribe()
	_, ok = <-late
	assert.False(t, ok)
}
