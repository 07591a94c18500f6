// Package rules loads dependent-field rule documents. A document names the
// master/dependent pairs, the selected-value lists and the conditional
// setters a page wires up. Documents are JSON or YAML; the bundled presets
// reproduce the bottle field and taste inline pages.
package rules
