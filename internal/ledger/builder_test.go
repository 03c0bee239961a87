package ledger

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/match"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/registry"
)

const exportHeader = `Account Summary
Account,12345
Period,202401
Card,Type,Date,Amount,Description
`

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func txn(t *testing.T, desc string, amount int64) domain.Transaction {
	t.Helper()
	created, err := domain.NewTransaction(time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), decimal.NewFromInt(amount), desc)
	require.NoError(t, err)
	return *created
}

func newBuilder(t *testing.T, keys, ignore []string) *Builder {
	t.Helper()
	m, err := match.New(keys, ignore, match.MatchTypeContains)
	require.NoError(t, err)
	return NewBuilder(registry.MustNew(parser.DefaultRowLayout()), m, zerolog.Nop())
}

func assertTotalsConsistent(t *testing.T, l *domain.Ledger) {
	t.Helper()
	for _, buckets := range []*domain.Buckets{l.Spending(), l.Income()} {
		sum := decimal.Zero
		buckets.Each(func(_ string, bucket *domain.Bucket) {
			bucketSum := decimal.Zero
			for _, txn := range bucket.Transactions() {
				bucketSum = bucketSum.Add(txn.Amount)
			}
			assert.True(t, bucket.Total().Equal(bucketSum))
			sum = sum.Add(bucket.Total())
		})
		assert.True(t, buckets.Total().Equal(sum))
	}
}

func TestBuilder_GroceriesScenario(t *testing.T) {
	b := newBuilder(t, []string{"GRO"}, nil)
	b.Add(txn(t, "GRO STORE #1", -50))
	b.Add(txn(t, "GRO STORE #2", -30))

	l := b.Ledger()
	bucket, ok := l.Spending().Get("GRO")
	require.True(t, ok)
	assert.Equal(t, "-80", bucket.Total().String())
	assert.Equal(t, 2, bucket.Len())
	assert.Equal(t, "-80", l.TotalSpending().String())
	assert.Equal(t, 2, b.Stats().Matched)
}

func TestBuilder_IgnoreTakesPrecedence(t *testing.T) {
	b := newBuilder(t, []string{"TRANSFER", "GRO"}, []string{"TRANSFER"})
	b.Add(txn(t, "INTERNAL TRANSFER", -500))

	l := b.Ledger()
	assert.True(t, l.IsEmpty())
	assert.True(t, l.TotalSpending().IsZero())
	assert.True(t, l.TotalIncome().IsZero())
	assert.Equal(t, 1, b.Stats().Ignored)
	assert.Equal(t, 0, b.Stats().Recorded())
}

func TestBuilder_UnmatchedUsesDescription(t *testing.T) {
	b := newBuilder(t, []string{"GRO"}, nil)
	b.Add(txn(t, "RANDOM CORNER SHOP", -12))

	bucket, ok := b.Ledger().Spending().Get("RANDOM CORNER SHOP")
	require.True(t, ok)
	assert.Equal(t, "-12", bucket.Total().String())
	assert.Equal(t, 1, b.Stats().Unmatched)
}

func TestBuilder_RoutesBySign(t *testing.T) {
	b := newBuilder(t, []string{"PAYROLL", "GRO"}, nil)
	b.Add(txn(t, "GRO STORE", -20))
	b.Add(txn(t, "ACME PAYROLL", 2500))
	b.Add(txn(t, "REFUND", 0))

	l := b.Ledger()
	assert.Equal(t, []string{"GRO"}, l.Spending().Keys())
	assert.Equal(t, []string{"PAYROLL", "REFUND"}, l.Income().Keys())
	assert.Equal(t, "2500", l.TotalIncome().String())
	assertTotalsConsistent(t, l)
}

func TestBuilder_TotalsHoldAfterEveryUpdate(t *testing.T) {
	b := newBuilder(t, []string{"GRO", "GAS"}, []string{"TRANSFER"})
	inputs := []domain.Transaction{
		txn(t, "GRO ONE", -10),
		txn(t, "GAS STATION", -45),
		txn(t, "TRANSFER OUT", -300),
		txn(t, "SALARY", 1000),
		txn(t, "GRO TWO", -7),
		txn(t, "CASHBACK", 3),
	}
	for _, in := range inputs {
		b.Add(in)
		assertTotalsConsistent(t, b.Ledger())
	}
	assert.Equal(t, "-62", b.Ledger().TotalSpending().String())
	assert.Equal(t, "1003", b.Ledger().TotalIncome().String())
}

func TestBuilder_BuildDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b_second.csv", exportHeader+
		"4500,POS,20240120,-30.00,GRO STORE #2\n"+
		"4500,DEP,20240125,2500.00,PAYROLL\n")
	writeFile(t, dir, "a_first.csv", exportHeader+
		"4500,POS,20240105,-50.00,GRO STORE #1\n"+
		"First Bank Card,,,,\n"+
		"4500,POS,20240106,,MISSING AMOUNT\n"+
		"4500,XFR,20240107,-500.00,INTERNAL TRANSFER\n")
	writeFile(t, dir, "notes.txt", "not a statement")

	b := newBuilder(t, []string{"GRO"}, []string{"TRANSFER"})
	l, stats, err := b.BuildDir(context.Background(), dir)
	require.NoError(t, err)

	bucket, ok := l.Spending().Get("GRO")
	require.True(t, ok)
	txns := bucket.Transactions()
	require.Len(t, txns, 2)
	// Files in listing order, rows in file order
	assert.Equal(t, "GRO STORE #1", txns[0].Description)
	assert.Equal(t, "GRO STORE #2", txns[1].Description)
	assert.Equal(t, "2024/01/05", txns[0].DateString())

	assert.Equal(t, "-80", l.TotalSpending().String())
	assert.Equal(t, "2500", l.TotalIncome().String())

	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 9, stats.HeaderRows) // 4 + 4 leading rows plus one banner
	assert.Equal(t, 1, stats.Malformed)
	require.Len(t, stats.Skipped, 1)
	assert.True(t, errors.Is(stats.Skipped[0], domain.ErrMalformedRow))
	assert.Equal(t, 1, stats.Ignored)
	assert.Equal(t, 2, stats.Matched)
	assert.Equal(t, 1, stats.Unmatched)
}

func TestBuilder_SkipsFilesWithoutParser(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.xlsx", "not a zip archive")
	writeFile(t, dir, "bank.csv", exportHeader+"4500,POS,20240105,-50.00,GRO STORE #1\n")

	l, stats, err := newBuilder(t, []string{"GRO"}, nil).BuildDir(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 1, stats.FilesSkipped)
	assert.Equal(t, 1, l.TransactionCount())
}

func TestBuilder_MissingDirectory(t *testing.T) {
	_, _, err := newBuilder(t, nil, nil).BuildDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrSourceNotFound))
}

func TestBuilder_EmptyDirectory(t *testing.T) {
	l, stats, err := newBuilder(t, nil, nil).BuildDir(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, l.IsEmpty())
	assert.Equal(t, 0, stats.Files)
}

func TestBuilder_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.csv", exportHeader+"4500,POS,20240105,-50.00,GRO STORE #1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newBuilder(t, nil, nil).BuildDir(ctx, dir)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuild_OneShot(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bank.csv", exportHeader+
		"4500,POS,20240105,-50.00,gro store #1\n"+
		"4500,XFR,20240107,-500.00,Internal Transfer\n")

	l, stats, err := Build(context.Background(), dir, []string{"GRO"}, []string{"TRANSFER"}, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"GRO"}, l.Spending().Keys())
	assert.Equal(t, 1, stats.Ignored)
}

func TestBuild_RejectsEmptyIgnorePattern(t *testing.T) {
	_, _, err := Build(context.Background(), t.TempDir(), nil, []string{""}, zerolog.Nop())
	assert.Error(t, err)
}
