// Package ofx imports bank and credit card statements as receipts.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/google/uuid"

	"github.com/Veraticus/recollect/internal/model"
)

// receiptNamespace seeds the name-based UUIDs of imported receipts, so
// importing the same statement twice replaces rather than duplicates.
var receiptNamespace = uuid.MustParse("6f1c7a52-3d0e-4c8e-9a43-2b7f5d1e8c90")

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	refSuffix     = regexp.MustCompile(`\*[A-Z0-9]{4,}$`)
)

// Parser implements OFX/QFX file parsing.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Some SGML exports drop the closing bracket on bare tags.
	return tagFixRegex.ReplaceAllString(content, "$1>")
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

// ParseFile parses an OFX/QFX file and returns its purchases as receipts.
// Credits such as deposits and refunds are skipped.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Receipt, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var receipts []model.Receipt
	var bankStmts, ccStmts, skipped int

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		bankStmts++
		account := string(stmt.BankAcctFrom.AcctID)
		method := paymentMethod(fmt.Sprint(stmt.BankAcctFrom.AcctType), account)
		for _, tx := range stmt.BankTranList.Transactions {
			if r, ok := p.convertTransaction(tx, account, method); ok {
				receipts = append(receipts, r)
			} else {
				skipped++
			}
		}
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		ccStmts++
		account := string(stmt.CCAcctFrom.AcctID)
		method := paymentMethod("credit card", account)
		for _, tx := range stmt.BankTranList.Transactions {
			if r, ok := p.convertTransaction(tx, account, method); ok {
				receipts = append(receipts, r)
			} else {
				skipped++
			}
		}
	}

	slog.InfoContext(ctx, "Parsed OFX file",
		"receipts", len(receipts),
		"skipped_credits", skipped,
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return receipts, nil
}

// convertTransaction converts a debit into a receipt. It reports false for credits.
func (p *Parser) convertTransaction(tx ofxgo.Transaction, account, method string) (model.Receipt, bool) {
	amount, _ := tx.TrnAmt.Float64()
	if amount >= 0 {
		return model.Receipt{}, false
	}

	trnType := fmt.Sprint(tx.TrnType)
	r := model.Receipt{
		ID:            uuid.NewSHA1(receiptNamespace, []byte(account+"|"+string(tx.FiTID))).String(),
		Merchant:      p.extractMerchantName(tx),
		Amount:        -amount,
		Date:          tx.DtPosted.Time,
		Category:      categoryFor(trnType),
		PaymentMethod: method,
		Notes:         strings.TrimSpace(string(tx.Memo)),
	}
	if tx.CheckNum != "" {
		r.Notes = strings.TrimSpace(fmt.Sprintf("check #%s %s", tx.CheckNum, r.Notes))
	}
	return r, true
}

// categoryFor infers a category from the OFX transaction type.
func categoryFor(trnType string) string {
	switch trnType {
	case "FEE", "SRVCHG":
		return "Bank Fees"
	case "ATM", "CASH":
		return "Cash & ATM"
	case "CHECK":
		return "Check"
	default:
		return ""
	}
}

// paymentMethod describes the account by kind and its last four digits.
func paymentMethod(kind, account string) string {
	kind = strings.ToLower(kind)
	if len(account) > 4 {
		account = account[len(account)-4:]
	}
	if account == "" {
		return kind
	}
	return fmt.Sprintf("%s x%s", kind, account)
}

// extractMerchantName tries to get a clean merchant name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
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

	// Leading "MM/DD " dates.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	// Trailing order references such as "AMAZON.COM*RT4Y7HG2".
	return refSuffix.ReplaceAllString(name, "")
}

// isGenericDescription checks if a transaction name is too generic.
func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	default:
		return false
	}
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(_ context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(stmt.CCAcctFrom.AcctID))
		}
	}
	return accounts, nil
}
