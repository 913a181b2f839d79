// Package ecs provides ECS adapters for sequence's playback events.
//
// The primary adapter is [NewDonburiSink], which bridges timeline events
// (rebuild, restart, reverse, complete) into a [Donburi] world as typed
// events. Subscribe to [TimelineEventType] in your ECS systems to receive
// them.
//
// Usage:
//
//	sink := ecs.NewDonburiSink(world)
//	scene.SetEventSink(sink)
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
