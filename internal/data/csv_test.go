package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdmkt/tdseq/internal/domain/demark"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestCSVSource_ParsesOHLC(t *testing.T) {
	path := writeCSV(t, "RELIANCE.csv", `date,open,high,low,close,volume
2024-01-01,100.0,101.5,99.0,100.5,12000
2024-01-02, 100.5 ,102.0,100.0, 101.0 ,9000
`)

	src := &CSVSource{Path: path}
	bars, err := src.Bars(context.Background(), "RELIANCE")
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Equal(t, demark.Bar{Open: 100.0, High: 101.5, Low: 99.0, Close: 100.5}, bars[0])
	assert.Equal(t, demark.Bar{Open: 100.5, High: 102.0, Low: 100.0, Close: 101.0}, bars[1])
}

func TestCSVSource_ResolvesSymbolInDir(t *testing.T) {
	dir := t.TempDir()
	content := "open,high,low,close\n10,11,9,10.5\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "TCS.csv"), []byte(content), 0644))

	src := &CSVSource{Dir: dir}
	bars, err := src.Bars(context.Background(), "TCS")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 10.5, bars[0].Close)
}

func TestCSVSource_RejectsMissingColumns(t *testing.T) {
	path := writeCSV(t, "bad.csv", "open,high,low\n1,2,3\n")

	src := &CSVSource{Path: path}
	_, err := src.Bars(context.Background(), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close")
}

func TestCSVSource_RejectsBadRow(t *testing.T) {
	path := writeCSV(t, "bad.csv", "open,high,low,close\n1,2,3,notanumber\n")

	src := &CSVSource{Path: path}
	_, err := src.Bars(context.Background(), "X")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestCSVSource_MissingFile(t *testing.T) {
	src := &CSVSource{Dir: t.TempDir()}
	_, err := src.Bars(context.Background(), "NOPE")
	require.Error(t, err)
}
