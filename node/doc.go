// Package node wires a beacond node together: configuration, the block
// store and reference chain behind a chain handle, the block processor
// reporting on a sync channel, and an optional Prometheus endpoint.
//
// Node also offers ImportBatch and ImportParentChain, which run a batch in
// the caller's goroutine and pick its result off the sync channel. They act
// as a minimal sync manager for tools such as the CLI.
package node
