package record

import (
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

// Normalize converts flattened values into the registry's value domain.
// Null values are dropped. Array elements become strings (null as ""),
// scalars are stringified and any remaining structure is JSON-encoded.
func Normalize(flat *Flat) *Record {
	out := New()
	flat.Each(func(key string, value jsonv.Value) {
		switch value.Kind() {
		case jsonv.Null:
			return
		case jsonv.Array:
			items := value.Items()
			list := make([]string, len(items))
			for i, item := range items {
				list[i] = elementString(item)
			}
			out.Set(key, Multi(list...))
		default:
			out.Set(key, Single(value.Text()))
		}
	})
	return out
}

func elementString(v jsonv.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.Text()
}
