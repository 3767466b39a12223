package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Collections of the remote record store. All financial collections are
// partitioned by sender identity in the telegram_id column.
const (
	CollectionMessages   = "messages"
	CollectionIncomes    = "incomes"
	CollectionExpenses   = "expenses"
	CollectionBudgets    = "budgets"
	CollectionPortfolios = "portfolios"
	CollectionConsents   = "consents"
)

// Time wraps time.Time with tolerant JSON decoding: the store returns
// timestamps both with and without a zone suffix.
type Time struct {
	time.Time
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

func Now() Time { return Time{time.Now().UTC()} }

func (t Time) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format("2006-01-02T15:04:05.999999"))
}

func (t *Time) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

type MessageRecord struct {
	Platform  string          `json:"platform"`
	Sender    string          `json:"sender"`
	Username  string          `json:"username,omitempty"`
	Text      string          `json:"text"`
	Raw       json.RawMessage `json:"raw,omitempty"`
	CreatedAt Time            `json:"created_at"`
}

type IncomeRecord struct {
	TelegramID  string          `json:"telegram_id"`
	Amount      decimal.Decimal `json:"amount"`
	Frequency   string          `json:"frequency"`
	Description string          `json:"description"`
	CreatedAt   Time            `json:"created_at"`
}

type ExpenseRecord struct {
	TelegramID string          `json:"telegram_id"`
	Amount     decimal.Decimal `json:"amount"`
	Category   string          `json:"category"`
	Note       string          `json:"note"`
	CreatedAt  Time            `json:"created_at"`
}

type BudgetRecord struct {
	TelegramID   string          `json:"telegram_id"`
	Category     string          `json:"category"`
	MonthlyLimit decimal.Decimal `json:"monthly_limit"`
	CreatedAt    Time            `json:"created_at"`
}

type PortfolioRecord struct {
	TelegramID string        `json:"telegram_id,omitempty"`
	Name       string        `json:"name"`
	Data       PortfolioData `json:"data"`
}

type PortfolioData struct {
	Holdings []Holding `json:"holdings"`
}

type Holding struct {
	Symbol string           `json:"symbol,omitempty"`
	Value  *decimal.Decimal `json:"value"` // nil counts as zero
}

type ConsentRecord struct {
	TelegramID string `json:"telegram_id"`
	Consented  bool   `json:"consented"`
	Scope      string `json:"scope"`
	CreatedAt  Time   `json:"created_at"`
}

// ConsentScopeAIAdvice is the only consent scope the bot records.
const ConsentScopeAIAdvice = "ai_advice"
