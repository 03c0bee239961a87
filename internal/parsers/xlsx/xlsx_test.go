package xlsx

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestCanParse(t *testing.T) {
	p := NewParser(parser.DefaultRowLayout())

	assert.True(t, p.CanParse("bank.XLSX", []byte("PK\x03\x04rest")))
	assert.False(t, p.CanParse("bank.xlsx", []byte("a,b,c")))
	assert.False(t, p.CanParse("bank.csv", []byte("PK\x03\x04")))
	assert.Equal(t, "xlsx", p.Name())
}

func TestParse_FirstSheet(t *testing.T) {
	// 2024-01-07 as an Excel date serial
	serial := 45298.0

	data := buildWorkbook(t, [][]any{
		{"Account Summary"},
		{"Account", "12345"},
		{"Period", "202401"},
		{"Card", "Type", "Date", "Amount", "Description"},
		{"4500", "POS", 20240105, -50, "GRO STORE #1"},
		{"First Bank Card"},
		{"4500", "POS", serial, -30.25, "GRO STORE #2"},
		{"4500", "POS", 20240108, "", "NO AMOUNT"},
	})

	meta, err := parser.NewMetadata("/data/bank.xlsx", time.Now())
	require.NoError(t, err)

	p := NewParser(parser.DefaultRowLayout())
	stmt, err := p.Parse(context.Background(), bytes.NewReader(data), meta)
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 2)
	assert.Equal(t, "2024/01/05", stmt.Transactions[0].DateString())
	assert.Equal(t, "-50", stmt.Transactions[0].Amount.String())
	assert.Equal(t, "2024/01/07", stmt.Transactions[1].DateString(), "date serials are converted")
	assert.Equal(t, "-30.25", stmt.Transactions[1].Amount.String())
	assert.Equal(t, 5, stmt.HeaderRows)
	require.Len(t, stmt.Skipped, 1)
	assert.Equal(t, 8, stmt.Skipped[0].Row)
}

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"date serial", "45298", "20240107"},
		{"fractional serial", "45298.75", "20240107"},
		{"compact date", "20240105", "20240105"},
		{"text date", "2024/01/05", "2024/01/05"},
		{"zero", "0", "0"},
		{"negative", "-3", "-3"},
	}

	p := NewParser(parser.DefaultRowLayout())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := []string{"4500", "POS", tt.in}
			p.normalizeDate(record)
			assert.Equal(t, tt.want, record[2])
		})
	}

	short := []string{"4500"}
	p.normalizeDate(short)
	assert.Equal(t, []string{"4500"}, short)
}

func TestParse_BlankRowInHeaderBlock(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Account Summary"},
		{},
		{"Account", "12345"},
		{"Card", "Type", "Date", "Amount", "Description"},
		{"4500", "POS", 20240105, -50, "GRO STORE #1"},
	})

	stmt, err := NewParser(parser.DefaultRowLayout()).Parse(context.Background(), bytes.NewReader(data), nil)
	require.NoError(t, err)

	require.Len(t, stmt.Transactions, 1)
	assert.Equal(t, "GRO STORE #1", stmt.Transactions[0].Description)
	assert.Equal(t, 3, stmt.HeaderRows)
}

func TestParse_NotAWorkbook(t *testing.T) {
	p := NewParser(parser.DefaultRowLayout())
	_, err := p.Parse(context.Background(), bytes.NewReader([]byte("not a zip")), nil)
	assert.Error(t, err)
}
