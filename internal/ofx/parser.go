// Package ofx imports bank and credit card statements in OFX/QFX format.
package ofx

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/spice-budget/internal/model"
	"github.com/Veraticus/spice-budget/internal/service"
	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ratPrecision is the number of fractional digits kept when converting OFX amounts.
const ratPrecision = 8

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// ImportedTransaction is an expense read from a statement, not yet categorized.
type ImportedTransaction struct {
	Date      time.Time
	Amount    decimal.Decimal // positive
	FITID     string
	Name      string
	Memo      string
	Type      string
	AccountID string
	Currency  model.Currency
}

// Fingerprint identifies the bank record so re-imports can be skipped.
// Records without a FITID fall back to date, amount and name.
func (it ImportedTransaction) Fingerprint() string {
	key := it.AccountID + "|" + it.FITID
	if it.FITID == "" {
		key = fmt.Sprintf("%s|%s|%s|%s|%s",
			it.AccountID, it.Date.UTC().Format("2006-01-02"), it.Amount.String(), it.Currency, it.Name)
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ToTransaction converts the draft into a validated expense in categoryID.
func (it ImportedTransaction) ToTransaction(categoryID uuid.UUID) (model.Transaction, error) {
	currency, err := model.ParseCurrency(string(it.Currency))
	if err != nil {
		return model.Transaction{}, err
	}
	txn, err := model.NewDetailedTransaction(model.TransactionDetails{
		Date:        it.Date,
		Money:       model.NewMoney(it.Amount, currency),
		Name:        truncate(it.Name, model.MaxTransactionNameLength),
		Description: truncate(it.Memo, model.MaxDescriptionLength),
		CategoryID:  categoryID,
	})
	if err != nil {
		return model.Transaction{}, fmt.Errorf("transaction %q: %w", it.Name, err)
	}
	return txn, nil
}

// ImportRecord converts the draft and pairs it with its fingerprint.
func (it ImportedTransaction) ImportRecord(categoryID uuid.UUID) (service.ImportRecord, error) {
	txn, err := it.ToTransaction(categoryID)
	if err != nil {
		return service.ImportRecord{}, err
	}
	return service.ImportRecord{Fingerprint: it.Fingerprint(), Transaction: txn}, nil
}

func truncate(s string, limit int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:limit]))
}

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML files sometimes drop the closing bracket of a bare opening tag
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns its debits as expense drafts.
// Credits such as refunds and deposits are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]ImportedTransaction, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var transactions []ImportedTransaction
	var bankStmts, ccStmts, skipped int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			txns, n := p.processStatement(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), stmt.CurDef)
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			txns, n := p.processStatement(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), stmt.CurDef)
			transactions = append(transactions, txns...)
			skipped += n
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"skipped_credits", skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// processStatement converts the debits of one statement and reports how many
// credits it skipped.
func (p *Parser) processStatement(list *ofxgo.TransactionList, accountID string, curDef ofxgo.CurrSymbol) ([]ImportedTransaction, int) {
	if list == nil {
		return nil, 0
	}

	var transactions []ImportedTransaction
	skipped := 0
	for _, ofxTx := range list.Transactions {
		tx, ok := p.convertTransaction(ofxTx, accountID, curDef)
		if !ok {
			skipped++
			continue
		}
		transactions = append(transactions, tx)
	}
	return transactions, skipped
}

// convertTransaction converts an OFX debit to a draft. OFX signs debits negative.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID string, curDef ofxgo.CurrSymbol) (ImportedTransaction, bool) {
	amount := decimal.NewFromBigRat(&ofxTx.TrnAmt.Rat, ratPrecision)
	if !amount.IsNegative() {
		return ImportedTransaction{}, false
	}

	currency := curDef.String()
	if ofxTx.Currency != nil {
		if ok, _ := ofxTx.Currency.CurSym.Valid(); ok {
			currency = ofxTx.Currency.CurSym.String()
		}
	}

	name := p.extractMerchantName(ofxTx)
	if name == "" {
		name = strings.TrimSpace(ofxTx.TrnType.String())
		if ofxTx.CheckNum != "" {
			name += " " + string(ofxTx.CheckNum)
		}
	}

	memo := strings.TrimSpace(string(ofxTx.Memo))
	if memo == name {
		memo = ""
	}

	return ImportedTransaction{
		FITID:     string(ofxTx.FiTID),
		Date:      ofxTx.DtPosted.Time,
		Name:      name,
		Memo:      memo,
		Amount:    amount.Neg(),
		Currency:  model.Currency(strings.ToUpper(currency)),
		AccountID: accountID,
		Type:      ofxTx.TrnType.String(),
	}, true
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	// PAYEE is usually cleaner than NAME
	if tx.Payee != nil && tx.Payee.Name != "" {
		return strings.TrimSpace(string(tx.Payee.Name))
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}

	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}

	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Leading "MM/DD " dates
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}

	return slices.Contains(generic, strings.ToUpper(strings.TrimSpace(name)))
}

// Accounts returns the sorted distinct account ids the drafts came from.
func Accounts(drafts []ImportedTransaction) []string {
	var accounts []string
	for _, d := range drafts {
		if d.AccountID != "" && !slices.Contains(accounts, d.AccountID) {
			accounts = append(accounts, d.AccountID)
		}
	}
	slices.Sort(accounts)
	return accounts
}
