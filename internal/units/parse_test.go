package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePayload(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "bare json", content: `{"demand_analysis": {"demand_score": 70}}`},
		{name: "fenced with language tag", content: "```json\n{\"score\": 1}\n```"},
		{name: "fenced without language tag", content: "```\n{\"score\": 1}\n```"},
		{name: "fence hugging the braces", content: "```{\"score\": 1}```"},
		{name: "surrounding whitespace", content: "  \n{\"score\": 1}\n  "},
		{name: "prose", content: "Here is my analysis of the product.", wantErr: true},
		{name: "empty string", content: "", wantErr: true},
		{name: "empty object", content: "{}", wantErr: true},
		{name: "json array", content: `[{"score": 1}]`, wantErr: true},
		{name: "truncated json", content: `{"score": 1, "reasoning": "the mod`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := ParsePayload(tt.content)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, payload)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, payload)
		})
	}
}

func TestParsePayload_PreservesNestedStructure(t *testing.T) {
	payload, err := ParsePayload("```json\n{\"quality_assessment\": {\"quality_tier\": \"premium\", \"quality_score\": 82}}\n```")
	require.NoError(t, err)
	assert.Equal(t, "premium", payload.Map("quality_assessment").String("quality_tier", ""))
	assert.InDelta(t, 82, payload.Map("quality_assessment").Float("quality_score", 0), 0.001)
}
