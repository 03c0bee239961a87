package domain

import (
	"github.com/shopspring/decimal"
)

// Bucket accumulates the transactions resolved to one key.
// Total always equals the sum of the transaction amounts.
type Bucket struct {
	total        decimal.Decimal
	transactions []Transaction
}

// Total returns the signed sum of the bucket's transactions.
func (b *Bucket) Total() decimal.Decimal { return b.total }

// Len returns the number of transactions in the bucket.
func (b *Bucket) Len() int { return len(b.transactions) }

// Transactions returns a copy of the transactions in read order.
func (b *Bucket) Transactions() []Transaction {
	result := make([]Transaction, len(b.transactions))
	copy(result, b.transactions)
	return result
}

func (b *Bucket) add(txn Transaction) {
	b.total = b.total.Add(txn.Amount)
	b.transactions = append(b.transactions, txn)
}

// Buckets maps keys to buckets and remembers the order in which keys were first seen.
// Iteration order is insertion order, which the report relies on for tie-breaks.
type Buckets struct {
	keys  []string
	index map[string]*Bucket
	total decimal.Decimal
}

// NewBuckets creates an empty ordered bucket set.
func NewBuckets() *Buckets {
	return &Buckets{
		keys:  []string{},
		index: make(map[string]*Bucket),
	}
}

func (b *Buckets) add(key string, txn Transaction) {
	bucket, ok := b.index[key]
	if !ok {
		bucket = &Bucket{}
		b.index[key] = bucket
		b.keys = append(b.keys, key)
	}
	bucket.add(txn)
	b.total = b.total.Add(txn.Amount)
}

// Get returns the bucket for key.
func (b *Buckets) Get(key string) (*Bucket, bool) {
	bucket, ok := b.index[key]
	return bucket, ok
}

// Keys returns the keys in insertion order.
func (b *Buckets) Keys() []string {
	result := make([]string, len(b.keys))
	copy(result, b.keys)
	return result
}

// Len returns the number of keys.
func (b *Buckets) Len() int { return len(b.keys) }

// Total returns the sum of all bucket totals.
func (b *Buckets) Total() decimal.Decimal { return b.total }

// Each calls fn for every bucket in insertion order.
func (b *Buckets) Each(fn func(key string, bucket *Bucket)) {
	for _, key := range b.keys {
		fn(key, b.index[key])
	}
}

// Side says which half of the ledger a transaction landed in.
type Side int

const (
	SideIncome Side = iota
	SideSpending
)

func (s Side) String() string {
	if s == SideSpending {
		return "spending"
	}
	return "income"
}

// Ledger is the per-run fold of all bank transactions. Negative amounts go to
// spending buckets, everything else to income buckets.
type Ledger struct {
	spending *Buckets
	income   *Buckets
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		spending: NewBuckets(),
		income:   NewBuckets(),
	}
}

// Record adds txn under key and returns the side it was routed to.
func (l *Ledger) Record(key string, txn Transaction) Side {
	if txn.IsSpending() {
		l.spending.add(key, txn)
		return SideSpending
	}
	l.income.add(key, txn)
	return SideIncome
}

// Spending returns the spending buckets.
func (l *Ledger) Spending() *Buckets { return l.spending }

// Income returns the income buckets.
func (l *Ledger) Income() *Buckets { return l.income }

// TotalSpending returns the sum of all spending (negative or zero).
func (l *Ledger) TotalSpending() decimal.Decimal { return l.spending.Total() }

// TotalIncome returns the sum of all income.
func (l *Ledger) TotalIncome() decimal.Decimal { return l.income.Total() }

// IsEmpty reports whether no transaction was recorded.
func (l *Ledger) IsEmpty() bool {
	return l.spending.Len() == 0 && l.income.Len() == 0
}

// TransactionCount returns the number of recorded transactions.
func (l *Ledger) TransactionCount() int {
	count := 0
	for _, buckets := range []*Buckets{l.spending, l.income} {
		buckets.Each(func(_ string, bucket *Bucket) {
			count += bucket.Len()
		})
	}
	return count
}
