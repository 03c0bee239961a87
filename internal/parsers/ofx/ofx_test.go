package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

const ofxHeader = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240101120000
<LANGUAGE>ENG
<FI>
<ORG>TESTBANK
<FID>12345
</FI>
</SONRS>
</SIGNONMSGSRSV1>
`

const bankStatement = ofxHeader + `<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>9876543210
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000
<DTEND>20240131235959
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240105120000
<TRNAMT>-50.10
<FITID>TXN001
<NAME>GRO STORE #1
<MEMO>Groceries
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240115120000
<TRNAMT>1000.00
<FITID>TXN002
<NAME>Paycheck
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240116120000
<TRNAMT>-5.00
<FITID>TXN003
<MEMO>Memo only
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>2000.00
<DTASOF>20240131235959
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const creditCardStatement = ofxHeader + `<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101000000
<DTEND>20240131235959
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240103120000
<TRNAMT>-12.99
<FITID>CC001
<NAME>NETFLIX.COM
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-12.99
<DTASOF>20240131235959
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestName(t *testing.T) {
	p := NewParser()
	if got := p.Name(); got != "ofx" {
		t.Errorf("Name() = %q, want %q", got, "ofx")
	}
}

func TestCanParse(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		header   string
		expected bool
	}{
		{"OFX file with OFXHEADER marker", "test.ofx", "OFXHEADER:100\nDATA:OFXSGML\n", true},
		{"OFX file with XML header", "test.ofx", "<?xml version=\"1.0\"?><?OFX OFXHEADER=\"200\"?>\n", true},
		{"QFX file with OFX tag", "test.QFX", "<OFX><SIGNONMSGSRSV1>", true},
		{"OFX file without valid header", "test.ofx", "This is not OFX content", false},
		{"CSV file with OFX content", "test.csv", "OFXHEADER:100", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser()
			got := p.CanParse(tt.path, []byte(tt.header))
			if got != tt.expected {
				t.Errorf("CanParse() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParse_BankStatement(t *testing.T) {
	meta, err := parser.NewMetadata("/test/statement.ofx", time.Now())
	if err != nil {
		t.Fatalf("failed to create metadata: %v", err)
	}

	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(bankStatement), meta)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(stmt.Transactions) != 3 {
		t.Fatalf("got %d transactions, want 3", len(stmt.Transactions))
	}

	txn1 := stmt.Transactions[0]
	if txn1.Description != "GRO STORE #1" {
		t.Errorf("Transaction[0].Description = %q, want %q", txn1.Description, "GRO STORE #1")
	}
	if txn1.Amount.String() != "-50.1" {
		t.Errorf("Transaction[0].Amount = %s, want -50.1", txn1.Amount)
	}
	if txn1.DateString() != "2024/01/05" {
		t.Errorf("Transaction[0].Date = %s, want 2024/01/05", txn1.DateString())
	}
	if txn1.Source != "/test/statement.ofx" {
		t.Errorf("Transaction[0].Source = %q", txn1.Source)
	}

	if got := stmt.Transactions[1].Amount.String(); got != "1000" {
		t.Errorf("Transaction[1].Amount = %s, want 1000", got)
	}
	if got := stmt.Transactions[2].Description; got != "Memo only" {
		t.Errorf("Transaction[2].Description = %q, want memo fallback", got)
	}
	if stmt.RowsRead != 3 {
		t.Errorf("RowsRead = %d, want 3", stmt.RowsRead)
	}
}

func TestParse_CreditCard(t *testing.T) {
	stmt, err := NewParser().Parse(context.Background(), strings.NewReader(creditCardStatement), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(stmt.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(stmt.Transactions))
	}
	if got := stmt.Transactions[0].Amount.String(); got != "-12.99" {
		t.Errorf("Amount = %s, want -12.99", got)
	}
}

func TestParse_InvalidOFX(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), strings.NewReader("OFXHEADER:100\ngarbage"), nil)
	if err == nil {
		t.Error("Expected error for invalid OFX content")
	}
}

func TestParse_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewParser().Parse(ctx, strings.NewReader(bankStatement), nil)
	if err == nil {
		t.Error("Expected error for cancelled context")
	}
}
