package record

import (
	"encoding/json"
	"testing"

	"github.com/GriffinCanCode/AgentRegistry/gateway/internal/shared/jsonv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) jsonv.Value {
	t.Helper()
	v, err := jsonv.ParseString(s)
	require.NoError(t, err)
	return v
}

func TestFlattenNestedPaths(t *testing.T) {
	flat := Flatten(mustParse(t, `{"a":{"b":{"c":1}}}`), "")

	assert.Equal(t, []string{"a:b:c"}, flat.Keys())
	v, ok := flat.Get("a:b:c")
	require.True(t, ok)
	assert.Equal(t, float64(1), v.Num())
}

func TestFlattenOneLevelIsUnchanged(t *testing.T) {
	input := mustParse(t, `{"name":"Alpha","score":42,"active":true,"none":null,"list":[1,"x"]}`)
	flat := Flatten(input, "")

	assert.Equal(t, input.JSON(), flat.Value().JSON())
}

func TestFlattenStringifiesObjectElements(t *testing.T) {
	flat := Flatten(mustParse(t, `{"a":[{"x":1},"y"]}`), "")

	v, ok := flat.Get("a")
	require.True(t, ok)
	require.True(t, v.IsArray())
	items := v.Items()
	require.Len(t, items, 2)
	assert.Equal(t, `{"x":1}`, items[0].Str())
	assert.Equal(t, "y", items[1].Str())
}

func TestFlattenPrefix(t *testing.T) {
	flat := Flatten(mustParse(t, `{"name":"x","meta":{"v":2}}`), "agent")
	assert.Equal(t, []string{"agent:name", "agent:meta:v"}, flat.Keys())
}

func TestFlattenNonObjectInput(t *testing.T) {
	for _, input := range []string{`[1,2]`, `"text"`, `42`, `null`, `true`} {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, 0, Flatten(mustParse(t, input), "").Len())
		})
	}
}

func TestFlattenIsDeterministic(t *testing.T) {
	input := mustParse(t, `{"z":{"b":1,"a":2},"y":[{"k":"v"}],"x":null}`)

	first := Flatten(input, "")
	second := Flatten(input, "")

	assert.Equal(t, first.Keys(), second.Keys())
	assert.Equal(t, first.Value().JSON(), second.Value().JSON())
	assert.Equal(t, []string{"z:b", "z:a", "y", "x"}, first.Keys())
}

func TestNormalizeDropsNull(t *testing.T) {
	rec := Normalize(Flatten(mustParse(t, `{"a":null,"b":"x"}`), ""))

	_, hasA := rec.Get("a")
	assert.False(t, hasA)
	b, ok := rec.Get("b")
	require.True(t, ok)
	assert.Equal(t, "x", b.String())
	assert.Equal(t, 1, rec.Len())
}

func TestNormalizeCoercesScalars(t *testing.T) {
	rec := Normalize(Flatten(mustParse(t, `{"a":42,"b":true,"c":1.5,"d":false}`), ""))

	expected := map[string]interface{}{"a": "42", "b": "true", "c": "1.5", "d": "false"}
	assert.Equal(t, expected, rec.Map())
}

func TestNormalizeArrays(t *testing.T) {
	flat := NewFlat()
	flat.Set("mixed", jsonv.ArrayValue(
		jsonv.NullValue(),
		jsonv.StringValue("s"),
		jsonv.NumberValue(7),
		jsonv.BoolValue(false),
		jsonv.ObjectValue(nil),
	))

	rec := Normalize(flat)
	v, ok := rec.Get("mixed")
	require.True(t, ok)
	assert.True(t, v.IsMulti())
	assert.Equal(t, []string{"", "s", "7", "false", "{}"}, v.List())
}

func TestNormalizeValueDomain(t *testing.T) {
	rec := Build(mustParse(t, `{"a":{"b":[1,{"c":null}]},"d":"e","f":null,"g":[]}`))

	rec.Each(func(key string, v Value) {
		b, err := json.Marshal(v)
		require.NoError(t, err)

		var single string
		var list []string
		if json.Unmarshal(b, &single) != nil {
			require.NoError(t, json.Unmarshal(b, &list), "key %s", key)
		}
	})
	assert.Equal(t, []string{"a:b", "d", "g"}, rec.Keys())
}

func TestCollectSkillTags(t *testing.T) {
	payload := mustParse(t, `{
		"skills": [
			{"id":"search","tags":["x"," web ",""]},
			"{\"id\":\"summarize\",\"tags\":[\"x\",\"nlp\"]}",
			"not json",
			42,
			{"id":"no-tags"}
		]
	}`)

	tags := CollectSkillTags(payload)
	assert.ElementsMatch(t, []string{"x", "web", "nlp"}, tags)

	count := 0
	for _, tag := range tags {
		if tag == "x" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCollectSkillTagsAbsent(t *testing.T) {
	assert.Empty(t, CollectSkillTags(mustParse(t, `{"name":"a"}`)))
	assert.Empty(t, CollectSkillTags(mustParse(t, `{"skills":"nope"}`)))
	assert.NotNil(t, CollectSkillTags(mustParse(t, `[]`)))
}

func TestBuildEndToEndScenario(t *testing.T) {
	payload := mustParse(t, `{"profile":{"name":"Alpha","meta":{"capabilities":["web_search",{"nested":"obj"}]}}, "score":42}`)

	rec := Build(payload)

	name, _ := rec.Get("profile:name")
	assert.Equal(t, "Alpha", name.String())

	caps, _ := rec.Get("profile:meta:capabilities")
	assert.Equal(t, []string{"web_search", `{"nested":"obj"}`}, caps.List())

	score, _ := rec.Get("score")
	assert.Equal(t, "42", score.String())

	_, hasTags := rec.Get(SkillTagsKey)
	assert.False(t, hasTags)
}

func TestBuildMergesSkillTags(t *testing.T) {
	rec := Build(mustParse(t, `{"skills":[{"name":"a","tags":["t1","t2"]},{"name":"b","tags":["t2"]}]}`))

	tags, ok := rec.Get(SkillTagsKey)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"t1", "t2"}, tags.List())

	skills, _ := rec.Get("skills")
	assert.Equal(t, []string{`{"name":"a","tags":["t1","t2"]}`, `{"name":"b","tags":["t2"]}`}, skills.List())
}

func TestRecordJSONRoundTripKeepsOrder(t *testing.T) {
	rec := New()
	rec.Set("b", Single("1"))
	rec.Set("a", Multi("x", "y"))

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Equal(t, `{"b":"1","a":["x","y"]}`, string(data))

	decoded := New()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, []string{"b", "a"}, decoded.Keys())
	a, _ := decoded.Get("a")
	assert.True(t, a.Equal(Multi("x", "y")))
}
