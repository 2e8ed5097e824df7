package directory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
)

func TestParse_CIKLookup(t *testing.T) {
	t.Parallel()

	data := []byte("APPLE INC:0000320193:\r\n" +
		"AT&T: INC.:0000732717:\n" +
		"garbage line\n" +
		"NO CIK::\n" +
		"MICROSOFT CORP:0000789019:\n")

	records, err := directory.Parse(directory.FormatCIKLookup, data)
	require.NoError(t, err)

	assert.Equal(t, []directory.Record{
		{Name: "APPLE INC", CIK: "0000320193"},
		{Name: "AT&T: INC.", CIK: "0000732717"},
		{Name: "MICROSOFT CORP", CIK: "0000789019"},
	}, records)
}

func TestParse_CIKLookupLatin1(t *testing.T) {
	t.Parallel()

	data := []byte("SOCI\xc9T\xc9 G\xc9N\xc9RALE:0000000042:\n")

	records, err := directory.Parse(directory.FormatCIKLookup, data)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "SOCIÉTÉ GÉNÉRALE", records[0].Name)
}

func TestParse_Tickers(t *testing.T) {
	t.Parallel()

	data := []byte(`{
		"10": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"},
		"2":  {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
		"0":  {"cik_str": 1045810, "ticker": "NVDA", "title": "NVIDIA CORP"}
	}`)

	records, err := directory.Parse(directory.FormatTickers, data)
	require.NoError(t, err)

	assert.Equal(t, []directory.Record{
		{Name: "NVIDIA CORP", CIK: "0001045810"},
		{Name: "Apple Inc.", CIK: "0000320193"},
		{Name: "MICROSOFT CORP", CIK: "0000789019"},
	}, records)
}

func TestParse_TickersSchemaViolation(t *testing.T) {
	t.Parallel()

	_, err := directory.Parse(directory.FormatTickers, []byte(`{"0": {"ticker": "X"}}`))
	require.ErrorIs(t, err, directory.ErrSchema)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	_, err := directory.Parse(directory.FormatCIKLookup, []byte("nothing useful\n"))
	require.ErrorIs(t, err, directory.ErrEmptyDataset)

	_, err = directory.Parse("csv", []byte("a,b"))
	require.ErrorIs(t, err, directory.ErrUnknownFormat)
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	f, err := directory.ParseFormat(" Tickers ")
	require.NoError(t, err)
	assert.Equal(t, directory.FormatTickers, f)

	_, err = directory.ParseFormat("xml")
	require.ErrorIs(t, err, directory.ErrUnknownFormat)
}
