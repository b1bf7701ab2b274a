package view

import (
	"html"
	"strings"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/domain/record"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/providers/ledger"
	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/microcosm-cc/bluemonday"
)

// View is the flat, whitelisted form of a registered entry. "tags" and
// "skillTags" are always present.
type View map[string]interface{}

// Tags returns the tags of the view
func (v View) Tags() []string {
	tags, _ := v["tags"].([]string)
	return tags
}

// SkillTags returns the skill tags of the view
func (v View) SkillTags() []string {
	tags, _ := v["skillTags"].([]string)
	return tags
}

// Mapper turns stored triples back into views
type Mapper struct {
	table  *Table
	fields map[string]FieldSpec
	policy *bluemonday.Policy
}

// NewMapper creates a mapper for table
func NewMapper(table *Table) *Mapper {
	fields := make(map[string]FieldSpec, len(table.Fields))
	for _, f := range table.Fields {
		fields[f.Predicate] = f
	}
	return &Mapper{
		table:  table,
		fields: fields,
		policy: bluemonday.StrictPolicy(),
	}
}

// NewDefaultMapper creates a mapper for the built-in table
func NewDefaultMapper() (*Mapper, error) {
	table, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return NewMapper(table), nil
}

// accumulator tracks a deduplicated, ordered list
type accumulator struct {
	items []string
	seen  map[string]struct{}
}

func (a *accumulator) add(s string) {
	if a.seen == nil {
		a.seen = make(map[string]struct{})
	}
	if _, ok := a.seen[s]; ok {
		return
	}
	a.seen[s] = struct{}{}
	a.items = append(a.items, s)
}

func (a *accumulator) list() []string {
	if a.items == nil {
		return []string{}
	}
	return a.items
}

// MapEntryToView builds the view of one entry's triples
func (m *Mapper) MapEntryToView(triples []ledger.Triple) View {
	out := View{}
	var tags, skillTags accumulator
	multi := make(map[string]*accumulator)
	skills := make(map[string][]jsonv.Value)

	for _, t := range triples {
		switch t.Predicate {
		case m.table.TagPredicate:
			if tag := strings.TrimSpace(t.Object.Display()); tag != "" {
				tags.add(tag)
			}
			continue
		case m.table.SkillTagPredicate:
			if tag := strings.TrimSpace(t.Object.Data); tag != "" {
				skillTags.add(tag)
			}
			continue
		}

		fs, ok := m.fields[t.Predicate]
		if !ok {
			continue
		}

		switch fs.Kind {
		case KindSingle:
			if _, done := out[fs.Field]; !done {
				out[fs.Field] = m.single(fs, t.Object.Data)
			}
		case KindBoolean:
			if _, done := out[fs.Field]; !done {
				out[fs.Field] = t.Object.Data == "true"
			}
		case KindMulti:
			acc := multi[fs.Field]
			if acc == nil {
				acc = &accumulator{}
				multi[fs.Field] = acc
			}
			acc.add(t.Object.Data)
		case KindJSONTags:
			doc, err := jsonv.ParseString(t.Object.Data)
			if err != nil {
				continue
			}
			acc := multi[fs.Field]
			if acc == nil {
				acc = &accumulator{}
				multi[fs.Field] = acc
			}
			before := len(acc.items)
			acc.add(t.Object.Data)
			if len(acc.items) > before {
				skills[fs.Field] = append(skills[fs.Field], doc)
			}
			for _, tag := range record.TagsOf(doc) {
				skillTags.add(tag)
			}
		}
	}

	for field, acc := range multi {
		if docs, ok := skills[field]; ok {
			out[field] = docs
			continue
		}
		out[field] = acc.list()
	}

	out["tags"] = tags.list()
	out["skillTags"] = skillTags.list()
	return out
}

func (m *Mapper) single(fs FieldSpec, data string) string {
	if !fs.Sanitize {
		return data
	}
	return strings.TrimSpace(html.UnescapeString(m.policy.Sanitize(data)))
}
