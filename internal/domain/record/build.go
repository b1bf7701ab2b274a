package record

import (
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

// Build runs a payload through the full normalization pipeline: flatten,
// merge collected skill tags, normalize.
func Build(payload jsonv.Value) *Record {
	flat := Flatten(payload, "")

	if tags := CollectSkillTags(payload); len(tags) > 0 {
		items := make([]jsonv.Value, len(tags))
		for i, tag := range tags {
			items[i] = jsonv.StringValue(tag)
		}
		flat.Set(SkillTagsKey, jsonv.ArrayValue(items...))
	}

	return Normalize(flat)
}
