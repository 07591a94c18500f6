// Package dependents keeps dependent form fields in sync with their masters.
//
// Three behaviours are provided, each a Binding:
//
//   - MasterValue copies a master field's value into the widget data of every
//     dependent autocomplete, so the widget can narrow its options.
//   - SelectedValues publishes the values chosen across sibling inline rows
//     to each sibling widget under "<field>_list", so they can be excluded.
//   - ConditionalValue selects one of two options on a dependent field
//     depending on the state of a master field in the same row.
//
// Attach binds behaviours to a form.Scope. Every binding syncs once from the
// current state, then follows change, insert and remove events until the
// returned Mount is unmounted.
package dependents
