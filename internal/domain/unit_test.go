package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnitNameClassification(t *testing.T) {
	assert.True(t, UnitProduct.Required())
	assert.True(t, UnitMarket.Required())
	assert.False(t, UnitAdvertising.Required())
	assert.False(t, UnitSupplyChain.Required())
	assert.False(t, UnitSales.Required())

	for _, u := range AllUnits() {
		assert.True(t, u.IsValid(), u)
	}
	assert.False(t, UnitName("demand_wizard").IsValid())
	assert.Len(t, AllUnits(), 5)
}

func TestAnalysisRequestValidate(t *testing.T) {
	req := AnalysisRequest{Unit: UnitProduct, Fields: Payload{"product_name": "Trail Camera"}}
	require.NoError(t, req.Validate())

	unknown := AnalysisRequest{Unit: UnitName("oracle"), Fields: Payload{}}
	require.ErrorIs(t, unknown.Validate(), ErrUnknownUnit)

	empty := AnalysisRequest{}
	require.Error(t, empty.Validate())
}

func TestAnalysisResultInvariant(t *testing.T) {
	tests := []struct {
		name    string
		res     AnalysisResult
		wantErr error
	}{
		{
			name: "success with payload",
			res: AnalysisResult{
				UnitName:   UnitProduct,
				Succeeded:  true,
				Payload:    Payload{"demand_analysis": map[string]any{"demand_score": 80.0}},
				Confidence: 85,
			},
		},
		{
			name: "failure with error",
			res: AnalysisResult{
				UnitName:  UnitSales,
				Succeeded: false,
				Error:     "backend unavailable",
			},
		},
		{
			name: "success carrying an error",
			res: AnalysisResult{
				UnitName:  UnitProduct,
				Succeeded: true,
				Payload:   Payload{"x": 1},
				Error:     "leftover",
			},
			wantErr: ErrResultInvariant,
		},
		{
			name: "failure without an error message",
			res: AnalysisResult{
				UnitName:  UnitProduct,
				Succeeded: false,
			},
			wantErr: ErrResultInvariant,
		},
		{
			name: "failure carrying a payload",
			res: AnalysisResult{
				UnitName:  UnitMarket,
				Succeeded: false,
				Payload:   Payload{"partial": true},
				Error:     "parse error",
			},
			wantErr: ErrResultInvariant,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.res.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewFailedResult(t *testing.T) {
	res := NewFailedResult(UnitSupplyChain, "rate limited", 1500*time.Millisecond)

	assert.Equal(t, UnitSupplyChain, res.UnitName)
	assert.False(t, res.Succeeded)
	assert.Equal(t, "rate limited", res.Error)
	assert.Equal(t, int64(1500), res.DurationMS)
	assert.Empty(t, res.Payload)
	require.NoError(t, res.Validate())
}
