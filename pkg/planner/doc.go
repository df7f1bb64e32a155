// Package planner implements the two model-driven phases of a request.
//
// Planning makes one tool-less call that yields a sectioned plan document.
// Execution seeds a conversation with the request and that document, then
// loops: call the model with the tool catalog, record the assistant turn,
// dispatch each tool use in order and feed the results back, until a turn
// has no tool use or the iteration bound is hit. Tool failures come back to
// the model as is_error results; only model failures abort a phase.
package planner
