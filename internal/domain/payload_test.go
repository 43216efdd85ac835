package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadMap(t *testing.T) {
	p := Payload{
		"quality_assessment": map[string]any{"quality_score": 70.0},
		"nested":             Payload{"inner": map[string]any{"leaf": "x"}},
		"scalar":             42,
	}

	assert.InDelta(t, 70.0, p.Map("quality_assessment").Float("quality_score", 0), 0.001)
	assert.Equal(t, "x", p.Map("nested", "inner").String("leaf", ""))
	assert.Nil(t, p.Map("missing"))
	assert.Nil(t, p.Map("scalar"))
	assert.Nil(t, p.Map("nested", "inner", "leaf"))
}

func TestPayloadFloat(t *testing.T) {
	p := Payload{
		"f":      12.5,
		"i":      7,
		"i64":    int64(9),
		"num":    json.Number("3.25"),
		"quoted": "88.5",
		"text":   "not a number",
	}

	assert.Equal(t, 12.5, p.Float("f", 0))
	assert.Equal(t, 7.0, p.Float("i", 0))
	assert.Equal(t, 9.0, p.Float("i64", 0))
	assert.Equal(t, 3.25, p.Float("num", 0))
	assert.Equal(t, 88.5, p.Float("quoted", 0))
	assert.Equal(t, 50.0, p.Float("text", 50))
	assert.Equal(t, 50.0, p.Float("absent", 50))
}

func TestPayloadString(t *testing.T) {
	p := Payload{"tier": "premium", "blank": "", "n": 1}

	assert.Equal(t, "premium", p.String("tier", "standard"))
	assert.Equal(t, "standard", p.String("blank", "standard"))
	assert.Equal(t, "standard", p.String("n", "standard"))
	assert.Equal(t, "standard", p.String("absent", "standard"))
}

func TestPayloadObjects(t *testing.T) {
	p := Payload{
		"city_rankings": []any{
			map[string]any{"city_name": "Istanbul"},
			"stray string",
			map[string]any{"city_name": "Ankara"},
		},
	}

	objs := p.Objects("city_rankings")
	require.Len(t, objs, 2)
	assert.Equal(t, "Istanbul", objs[0].String("city_name", ""))
	assert.Equal(t, "Ankara", objs[1].String("city_name", ""))

	assert.Nil(t, p.Objects("absent"))
}

func TestPayloadSurvivesJSONRoundTrip(t *testing.T) {
	src := Payload{
		"demand_analysis": map[string]any{"demand_score": 80.0},
		"city_rankings":   []any{map[string]any{"rank": 1.0}},
	}
	raw, err := json.Marshal(src)
	require.NoError(t, err)

	var decoded Payload
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.InDelta(t, 80.0, decoded.Map("demand_analysis").Float("demand_score", 0), 0.001)
	require.Len(t, decoded.Objects("city_rankings"), 1)
}

func TestPayloadClone(t *testing.T) {
	src := Payload{"a": 1}
	dup := src.Clone()
	dup["a"] = 2

	assert.Equal(t, 1, src["a"])
	assert.Nil(t, Payload(nil).Clone())
}
