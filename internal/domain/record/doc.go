/*
Package record turns arbitrary JSON payloads into the flat key/value records
stored by the registry.

# Pipeline

	payload --Flatten--> Flat --(+ skill_tags)--> Normalize --> Record

Flatten joins nested object keys with ":" ({"a":{"b":1}} becomes "a:b").
Arrays stay arrays; object elements are replaced by their JSON text.
Normalize drops nulls and stringifies everything else so that every value is
either a string or a list of strings.

# Usage

	payload, _ := jsonv.Parse(body)
	rec := record.Build(payload)
	rec.Each(func(key string, v record.Value) { ... })
*/
package record
