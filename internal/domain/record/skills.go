package record

import (
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
)

const (
	// SkillsKey holds the list of skill descriptors in an agent payload
	SkillsKey = "skills"
	// SkillTagsKey is the record field the collected skill tags are stored under
	SkillTagsKey = "skill_tags"
)

// CollectSkillTags gathers the distinct, trimmed tags of every skill in the
// payload's `skills` array. Skills may be objects or JSON-encoded strings;
// entries that do not resolve to an object are skipped. The result has set
// semantics; the first-seen order is kept.
func CollectSkillTags(payload jsonv.Value) []string {
	skills, ok := payload.Lookup(SkillsKey)
	if !ok || !skills.IsArray() {
		return []string{}
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, entry := range skills.Items() {
		skill, ok := resolveSkill(entry)
		if !ok {
			continue
		}
		for _, tag := range TagsOf(skill) {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	return tags
}

// TagsOf returns the trimmed, non-empty string members of skill.tags
func TagsOf(skill jsonv.Value) []string {
	raw, ok := skill.Lookup("tags")
	if !ok || !raw.IsArray() {
		return nil
	}
	var tags []string
	for _, item := range raw.Items() {
		if item.Kind() != jsonv.String {
			continue
		}
		if tag := strings.TrimSpace(item.Str()); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func resolveSkill(entry jsonv.Value) (jsonv.Value, bool) {
	switch entry.Kind() {
	case jsonv.Object:
		return entry, true
	case jsonv.String:
		parsed, err := jsonv.ParseString(entry.Str())
		if err != nil || !parsed.IsObject() {
			return jsonv.Value{}, false
		}
		return parsed, true
	default:
		return jsonv.Value{}, false
	}
}
