// Package orchestrator wires the schema -> definition -> live document ->
// dependent bindings -> renderer pipeline behind a single entry point, while
// keeping every stage injectable.
package orchestrator
