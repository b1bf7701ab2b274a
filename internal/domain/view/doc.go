// Package view maps the triples stored for a subject back into a flat,
// whitelisted view for API responses.
//
// The whitelist is a Table of predicate to field mappings. The built-in
// table is embedded YAML; FIELD_TABLE_PATH may point to a YAML or TOML
// replacement. Tags and skill tags are always present in a view.
package view
