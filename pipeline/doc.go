// Package pipeline wires the harmony run end to end: load, separate, track
// pitch, estimate the key, build harmonies, mix and save.
//
// External collaborators (codec, source separator, pitch detector, shifter,
// effects) are injected through options so that each can be replaced or
// faked. Every run carries a UUID that is attached to its log records.
package pipeline
