// Package core defines the shared domain contracts of Troupe: the Agent and
// Tool plugin interfaces, the invocation protocol request/response types, the
// composed response value object and the error taxonomy.
//
// Higher level packages (registry, protocol, router, composer, conversation)
// depend only on this package, never on each other's concrete types, so
// implementations remain swappable at the wiring layer.
package core
