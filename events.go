package sequence

// EventType identifies a kind of playback event.
type EventType uint8

const (
	EventRebuild         EventType = iota // a scope rebuilt its timeline
	EventRestart                          // a state binding restarted a timeline
	EventReverse                          // a state binding reversed a timeline
	EventComplete                         // forward playback reached the end
	EventReverseComplete                  // reverse playback reached 0
)

func (t EventType) String() string {
	switch t {
	case EventRebuild:
		return "rebuild"
	case EventRestart:
		return "restart"
	case EventReverse:
		return "reverse"
	case EventComplete:
		return "complete"
	case EventReverseComplete:
		return "reverse-complete"
	}
	return "unknown"
}

// TimelineEvent carries playback data for an EventSink.
type TimelineEvent struct {
	Type       EventType
	TimelineID string
	State      string
	Time       float64
}

// EventSink is the interface for optional ECS integration. When set on a
// Scene, playback events are forwarded to it.
type EventSink interface {
	EmitEvent(event TimelineEvent)
}

func newTimelineEvent(typ EventType, tl *Timeline) TimelineEvent {
	return TimelineEvent{Type: typ, TimelineID: tl.id, State: tl.state, Time: tl.time}
}
