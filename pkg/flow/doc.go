// Package flow defines the data model shared by the layout engines.
//
// The central types are:
//
//   - [Frame]: one timestamped flow-graph observation (nodes + weighted links)
//   - [LayoutState]: computed geometry for one frame (node boxes + link paths)
//   - [Overrides]: caller-supplied position overrides keyed by node name
//
// Frames are produced by an upstream ingestion collaborator (file upload or
// live stream) and consumed by the historical planner or the real-time
// stabilizer. LayoutStates are consumed read-only by a rendering layer.
//
// The package also provides the frame-file codecs used by the CLI (JSON
// array, NDJSON, and YAML) and the position-override operations
// ([ApplyPositionOverride], [CollectOverrides], [ResetOverrides]).
package flow
