package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	bus := NewBus()

	sites := bus.Subscribe(TopicSitesChanged)
	both := bus.Subscribe(TopicSitesChanged, TopicInspectionsChanged)

	bus.Publish(TopicSitesChanged)
	bus.Publish(TopicInspectionsChanged)

	assert.Equal(t, TopicSitesChanged, <-sites)
	assert.Equal(t, TopicSitesChanged, <-both)
	assert.Equal(t, TopicInspectionsChanged, <-both)

	select {
	case e := <-sites:
		t.Fatalf("unexpected event: %v", e)
	default:
	}
}

func TestBus_SlowSubscriberNeverBlocks(t *testing.T) {
	bus := NewBus()

	ch := bus.Subscribe(TopicInspectionsChanged)

	// more than the buffer can hold; extra notifications are dropped
	for i := 0; i < 50; i++ {
		bus.Publish(TopicInspectionsChanged)
	}

	received := 0
	for {
		select {
		case <-ch:
			received++
			continue
		default:
		}
		break
	}
	require.Greater(t, received, 0)
	require.LessOrEqual(t, received, 8)
}

func TestBus_PublishWithoutSubscribers(t *testing.T) {
	NewBus().Publish(TopicSitesChanged)
}
