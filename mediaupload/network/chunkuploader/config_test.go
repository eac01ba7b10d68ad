package chunkuploader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanParts(t *testing.T) {
	tests := []struct {
		name      string
		totalSize int64
		chunkSize int64
		want      []Part
	}{
		{
			name:      "Exact multiple of the chunk size",
			totalSize: 1048576,
			chunkSize: DefaultChunkSize,
			want: []Part{
				{Index: 0, Offset: 0, Length: 524288},
				{Index: 1, Offset: 524288, Length: 524288},
			},
		},
		{
			name:      "Smaller than one chunk",
			totalSize: 10,
			chunkSize: DefaultChunkSize,
			want:      []Part{{Index: 0, Offset: 0, Length: 10}},
		},
		{
			name:      "Short last part",
			totalSize: 1572864 + 1,
			chunkSize: DefaultChunkSize,
			want: []Part{
				{Index: 0, Offset: 0, Length: 524288},
				{Index: 1, Offset: 524288, Length: 524288},
				{Index: 2, Offset: 1048576, Length: 524288},
				{Index: 3, Offset: 1572864, Length: 1},
			},
		},
		{
			name:      "Empty source",
			totalSize: 0,
			chunkSize: DefaultChunkSize,
			want:      []Part{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PlanParts(tt.totalSize, tt.chunkSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, len(tt.want), PartCount(tt.totalSize, tt.chunkSize))
		})
	}
}

func TestPlanParts_Coverage(t *testing.T) {
	for _, total := range []int64{1, 7, 100, 1023, 1024, 1025, 4096, 99999} {
		for _, chunk := range []int64{1, 3, 64, 1024} {
			parts, err := PlanParts(total, chunk)
			require.NoError(t, err)

			var sum int64
			for i, p := range parts {
				assert.Equal(t, i, p.Index)
				assert.Equal(t, sum, p.Offset)
				assert.Greater(t, p.Length, int64(0))
				assert.LessOrEqual(t, p.Length, chunk)
				if i < len(parts)-1 {
					assert.Equal(t, chunk, p.Length)
				}
				sum += p.Length
			}
			assert.Equal(t, total, sum, "total=%d chunk=%d", total, chunk)
		}
	}
}

func TestPlanParts_Invalid(t *testing.T) {
	_, err := PlanParts(-1, DefaultChunkSize)
	require.Error(t, err)

	_, err = PlanParts(10, 0)
	require.Error(t, err)
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	assert.Equal(t, int64(524288), config.ChunkSize)
	assert.NotNil(t, config.Reporter)
}
