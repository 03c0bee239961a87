// Package ofx provides OFX/QFX statement parsing
package ofx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/budgetreport/internal/domain"
	"github.com/rumor-ml/commons.systems/budgetreport/internal/parser"
)

// amountPrecision is the number of decimal places kept from OFX amounts
const amountPrecision = 4

// Parser implements OFX/QFX parsing with a stateless design, safe for concurrent use.
type Parser struct{}

var parserInstance = &Parser{}

// NewParser returns the shared OFX parser instance.
func NewParser() *Parser {
	return parserInstance
}

// getFileInfo returns a formatted file path string for error messages
func getFileInfo(meta *parser.Metadata) string {
	if name := parser.SourceName(meta); name != "" {
		return fmt.Sprintf(" from %s", name)
	}
	return ""
}

// Name returns the parser identifier
func (p *Parser) Name() string {
	return "ofx"
}

// CanParse checks if this parser can handle the file based on extension and header
func (p *Parser) CanParse(path string, header []byte) bool {
	// Check file extension (.ofx or .qfx, case-insensitive)
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}

	// Look for OFX header markers (both v1 SGML and v2 XML formats)
	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>")
}

// Parse extracts the transactions of every bank and credit card statement in the file
func (p *Parser) Parse(ctx context.Context, r io.Reader, meta *parser.Metadata) (*parser.RawStatement, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content%s: %w", getFileInfo(meta), err)
	}

	// ofxgo.ParseResponse does not take a context, so this is the last cancellation point
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	response, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file%s (%d bytes): %w", getFileInfo(meta), len(content), err)
	}

	var lists []*ofxgo.TransactionList
	for _, msg := range response.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("failed to type assert bank statement: expected *ofxgo.StatementResponse, got %T", msg)
		}
		if stmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in bank statement%s", getFileInfo(meta))
		}
		lists = append(lists, stmt.BankTranList)
	}
	for _, msg := range response.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("failed to type assert credit card statement: expected *ofxgo.CCStatementResponse, got %T", msg)
		}
		if stmt.BankTranList == nil {
			return nil, fmt.Errorf("missing transaction list in credit card statement%s", getFileInfo(meta))
		}
		lists = append(lists, stmt.BankTranList)
	}

	if len(lists) == 0 {
		return nil, fmt.Errorf("no bank or credit card statement found in OFX file%s (bank: %d, creditcard: %d)",
			getFileInfo(meta), len(response.Bank), len(response.CreditCard))
	}

	source := parser.SourceName(meta)
	raw := &parser.RawStatement{}
	for _, list := range lists {
		for _, txn := range list.Transactions {
			raw.RowsRead++
			row := raw.RowsRead
			converted, err := extractTransaction(txn)
			if err != nil {
				raw.Skipped = append(raw.Skipped, domain.NewMalformedRow(source, row, "%v", err))
				continue
			}
			converted.Source = source
			raw.Transactions = append(raw.Transactions, *converted)
		}
	}

	return raw, nil
}

// extractTransaction converts one OFX transaction
func extractTransaction(txn ofxgo.Transaction) (*domain.Transaction, error) {
	id := txn.FiTID.String()

	// Use posted date; if not available, fallback to user date
	date := txn.DtPosted.Time
	if date.IsZero() {
		date = txn.DtUser.Time
	}
	if date.IsZero() {
		return nil, fmt.Errorf("transaction %q missing both posted date and user date", id)
	}

	// Use Name field for description; if empty, fallback to Memo field
	description := strings.TrimSpace(txn.Name.String())
	if description == "" {
		description = strings.TrimSpace(txn.Memo.String())
	}
	if description == "" {
		return nil, fmt.Errorf("transaction %q missing both name and memo fields", id)
	}

	amount, err := decimal.NewFromString(txn.TrnAmt.Rat.FloatString(amountPrecision))
	if err != nil {
		return nil, fmt.Errorf("transaction %q has invalid amount: %w", id, err)
	}

	return domain.NewTransaction(date, amount, description)
}
