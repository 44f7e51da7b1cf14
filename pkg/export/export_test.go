package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	data := Dataset{
		Title:    "Attendance 7A",
		Subtitle: []string{"Period 2024/2025"},
		Headers:  []string{"student_id", "percentage"},
		Footer:   []string{"at risk: 1"},
	}
	data.AddRow("s-1", "80.00")
	data.AddRow("s-2", "60.00")
	return data
}

func TestCSVExporterRendersRowsAndFooter(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.Equal(t, "student_id,percentage\ns-1,80.00\ns-2,60.00\nat risk: 1\n", string(out))
}

func TestCSVExporterNeutralizesFormulas(t *testing.T) {
	data := Dataset{Headers: []string{"name", "delta"}}
	data.AddRow("=HYPERLINK(\"x\")", "-1.5")
	data.AddRow("@sum", "+2")
	data.AddRow("-cmd", "3")

	out, err := NewCSVExporter().Render(data)
	require.NoError(t, err)
	assert.Equal(t, "name,delta\n\"'=HYPERLINK(\"\"x\"\")\",-1.5\n'@sum,+2\n'-cmd,3\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterProducesDocument(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRenderDispatch(t *testing.T) {
	format, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, format)

	_, err = ParseFormat("xlsx")
	require.Error(t, err)

	out, err := Render(FormatPDF, sampleDataset())
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, "application/pdf", FormatPDF.ContentType())
}
