// Package schema builds form definitions from OpenAPI 3 documents. The
// request body of an operation describes the fields; x-formsync-* vendor
// extensions pick widgets, option labels and facets, and may embed the
// dependent-field rules for the form.
package schema
