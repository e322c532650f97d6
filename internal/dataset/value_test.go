package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Float32KeepsDecimalForm(t *testing.T) {
	tests := []struct {
		in   float32
		want float64
	}{
		{0.08, 0.08},
		{254.49, 254.49},
		{0.0625, 0.0625},
		{-1.5, -1.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in))
	}
	assert.Nil(t, Normalize(float32(math.NaN())))
}

func TestEncodeKey(t *testing.T) {
	big := int64(1) << 53

	assert.NotEqual(t, encodeKey([]any{big}), encodeKey([]any{big + 1}))
	assert.NotEqual(t, encodeKey([]any{int64(math.MaxInt64)}), encodeKey([]any{int64(math.MaxInt64 - 1)}))
	assert.Equal(t, encodeKey([]any{int64(1)}), encodeKey([]any{1.0}))
	assert.NotEqual(t, encodeKey([]any{int64(1)}), encodeKey([]any{1.5}))
	assert.NotEqual(t, encodeKey([]any{"1"}), encodeKey([]any{int64(1)}))
	assert.Equal(t, encodeKey([]any{nil}), encodeKey([]any{math.NaN()}))
}

func TestDropDuplicates_LargeIntegers(t *testing.T) {
	big := int64(1) << 53
	f := mustFrame(t, []Column{{"Fulltimeemployees", KindInt}},
		[]any{big},
		[]any{big + 1},
		[]any{big + 1},
	)

	deduped := f.DropDuplicates()
	require.Equal(t, 2, deduped.Len())
	assert.Equal(t, big, deduped.Value(0, "Fulltimeemployees"))
	assert.Equal(t, big+1, deduped.Value(1, "Fulltimeemployees"))
}
