package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var sampleRows = []Row{
	{File: "loan.pdf", FieldName: "Text1", Label: "Borrower Name:"},
	{File: "loan.pdf", FieldName: "Amount", Tooltip: "Loan amount", Label: "Amount, USD"},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows))

	want := "file,field_name,tooltip,label\n" +
		"loan.pdf,Text1,,Borrower Name:\n" +
		"loan.pdf,Amount,Loan amount,Amount  USD\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteCSV_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "file,field_name,tooltip,label\n", buf.String())
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleRows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []string{"loan.pdf", "Text1", "", "Borrower Name:"}, rows[1])
	assert.Equal(t, []string{"loan.pdf", "Amount", "Loan amount", "Amount  USD"}, rows[2])
}

func TestFormatFromPath(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromPath("out/labels.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromPath("labels.csv"))
	assert.Equal(t, FormatCSV, FormatFromPath("labels"))
}

func TestWrite_UnsupportedFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, "pdf", sampleRows))
}
