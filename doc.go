// Package sequence is a declarative timeline library for [Ebitengine] scenes.
//
// Timelines are described as ordered steps: a target selector, a style
// string such as "opacity: 1; x: +=20", a duration and a position. Steps are
// grouped into scopes, compiled into playable timelines, registered by id and
// state tag, and played forward or in reverse when a state variable changes.
//
// # Quick start
//
//	scene := sequence.NewScene()
//	card := sequence.NewSprite("card", 120, 80)
//	scene.Root().AddChild(card)
//
//	zoom := scene.NewScope(nil, sequence.ScopeConfig{ID: "zoom", State: "zoom", Target: "#card"})
//	zoom.AddStep(&sequence.Step{Style: sequence.MustParseStyle("scale: 2"), Duration: sequence.Seconds(0.3)})
//	zoom.AddStep(&sequence.Step{Label: "shown"})
//	zoom.AddStep(&sequence.Step{Style: sequence.MustParseStyle("opacity: 1"), Duration: sequence.Seconds(0.2), Position: "shown-=0.1"})
//
//	scene.State().Set("zoom") // plays "zoom" forward; Set("") reverses it
//	sequence.Run(scene, sequence.RunConfig{Title: "zoom", Width: 640, Height: 480})
//
// # Scene graph
//
// Every animated element is a [Node]. Nodes form a tree rooted at
// [Scene.Root] and are found by selectors: "#name" or a bare name, ".class",
// "*", compounds such as "#card.open", descendant chains and comma-separated
// lists.
//
// # Styles
//
// [ParseStyle] turns "key: value; key: value" into a [Style]. Keys name node
// properties (x, y, width, scale, rotation, opacity, autoAlpha, color, ...).
// Values are numbers, lengths ("10px", "50%"), relative changes ("+=10"),
// colors or discrete words ("visible", "hidden").
//
// # Positions
//
// A step's Position places it on the timeline: empty appends at the end, a
// number is an absolute time, "+=0.2"/"-=0.2" offset from the end and
// "label+=0.2" offsets from a label. Labels must be placed before they are
// referenced.
//
// # Scopes and rebuilds
//
// A [Scope] collects steps and nested scopes. Every change schedules a
// rebuild; changes within one debounce window ([DefaultDebounce]) produce a
// single rebuild and share one [Future]. Rebuilt timelines are registered in
// the scene's [Registry] and nested scopes attach their timelines to the
// parent at their configured position.
//
// # Lookups
//
// [Registry.FindByID] and [Registry.FindByState] resolve on the next tick of
// the scene's [Loop], so they observe registrations made earlier in the same
// tick. [Registry.Timeline] attaches callbacks before resolving.
//
// # Documents
//
// [LoadDocument] reads a YAML description of nodes and timelines and
// [Scene.Mount] instantiates it. The cmd/sequence tool inspects and plays
// such documents.
//
// # ECS integration
//
// Playback events (rebuild, restart, reverse, complete) can be forwarded to
// an [EventSink]. The sequence/ecs module provides a [Donburi] adapter.
//
// [Ebitengine]: https://ebitengine.org
// [Donburi]: https://github.com/yohamta/donburi
package sequence
