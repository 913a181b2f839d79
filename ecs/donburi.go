package ecs

import (
	"github.com/phanxgames/sequence"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// TimelineEventType is the Donburi event type for sequence playback events.
// Subscribe to this in your ECS systems to react to timelines starting,
// reversing and finishing.
var TimelineEventType = events.NewEventType[sequence.TimelineEvent]()

type donburiSink struct {
	world donburi.World
}

// NewDonburiSink creates an EventSink backed by a Donburi world.
// Timeline events are published to TimelineEventType and can be
// consumed with events.Subscribe and ProcessEvents.
func NewDonburiSink(world donburi.World) sequence.EventSink {
	return &donburiSink{world: world}
}

func (s *donburiSink) EmitEvent(event sequence.TimelineEvent) {
	TimelineEventType.Publish(s.world, event)
}
