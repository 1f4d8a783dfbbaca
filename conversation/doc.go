// Package conversation implements the event-sourced audit log grouping every
// decision, tool execution and human escalation of one interaction session.
//
// A Conversation is never mutated in place: operations emit immutable events
// which are appended to an EventStore and folded into state by a pure apply
// function. Replaying the stored log from an empty aggregate reconstructs the
// exact applied-event list, which is the correctness property the tests pin
// down.
//
// The Service serializes operations per conversation id so the automatic
// low-confidence escalation event always directly follows its triggering
// decision event, with no interleaving from concurrent callers. Operations on
// different conversation ids proceed fully in parallel.
package conversation
