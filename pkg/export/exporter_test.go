package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"code", "course", "professor"},
		Rows: []map[string]string{
			{"code": "A1", "course": "Basis Data", "professor": "Budi, S.Kom"},
			{"code": "B2", "course": "Kalkulus", "professor": "Özgür"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "code,course,professor\nA1,Basis Data,\"Budi, S.Kom\"\nB2,Kalkulus,Özgür\n", string(out))

	withBOM, err := (&CSVExporter{WithBOM: true}).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(withBOM, utf8BOM))

	_, err = NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Perubahan Jadwal")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths(sampleDataset(), 190)
	require.Len(t, widths, 3)
	var sum float64
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, 190, sum, 0.001)
	assert.Greater(t, widths[2], widths[0])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))
	assert.Equal(t, "abcdefgh...", truncate("abcdefghijklmnopqrstuvwxyz", 20))
}
