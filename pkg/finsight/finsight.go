// Package finsight holds the financial record operations and the derived
// metrics behind the bot commands: budget utilization, savings rate,
// portfolio valuation and CSV export.
package finsight

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Blu3B0y/finsight/pkg/store"

	"github.com/shopspring/decimal"
	"github.com/vmkteam/embedlog"
)

// DefaultFrequency is assumed when /addincome omits the frequency argument.
const DefaultFrequency = "monthly"

type Manager struct {
	embedlog.Logger
	repo store.Repo
}

func NewManager(repo store.Repo, sl embedlog.Logger) *Manager {
	return &Manager{
		Logger: sl,
		repo:   repo,
	}
}

// Income methods

// AddIncome appends an IncomeRecord for the sender.
func (m *Manager) AddIncome(ctx context.Context, sender string, amount decimal.Decimal, frequency, description string) error {
	if frequency == "" {
		frequency = DefaultFrequency
	}

	err := m.repo.AddIncome(ctx, store.IncomeRecord{
		TelegramID:  sender,
		Amount:      amount,
		Frequency:   frequency,
		Description: description,
		CreatedAt:   store.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to add income: %w", err)
	}

	m.Print(ctx, "income added", "sender", sender, "amount", amount, "frequency", frequency)
	return nil
}

// IncomeSummary lists a sender's incomes with their unweighted sum. The total
// is labeled "approx" in replies: frequencies are deliberately not normalized.
type IncomeSummary struct {
	Records []store.IncomeRecord
	Total   decimal.Decimal
}

// Incomes returns up to 50 incomes for the sender. A store failure degrades
// to an empty summary, indistinguishable from no records.
func (m *Manager) Incomes(ctx context.Context, sender string) IncomeSummary {
	records, err := m.repo.IncomesBySender(ctx, sender, store.IncomesLimit)
	if err != nil {
		m.Error(ctx, "failed to get incomes", "sender", sender, "err", err)
		return IncomeSummary{}
	}

	summary := IncomeSummary{Records: records}
	for _, r := range records {
		summary.Total = summary.Total.Add(r.Amount)
	}

	return summary
}

// Expense methods

// AddExpense appends an ExpenseRecord for the sender.
func (m *Manager) AddExpense(ctx context.Context, sender string, amount decimal.Decimal, category, note string) error {
	err := m.repo.AddExpense(ctx, store.ExpenseRecord{
		TelegramID: sender,
		Amount:     amount,
		Category:   category,
		Note:       note,
		CreatedAt:  store.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to add expense: %w", err)
	}

	m.Print(ctx, "expense added", "sender", sender, "amount", amount, "category", category)
	return nil
}

// ExpenseSummary lists a sender's most recent expenses with their sum.
type ExpenseSummary struct {
	Records []store.ExpenseRecord
	Total   decimal.Decimal
}

// RecentExpenses returns the 5 most recent expenses for the sender.
func (m *Manager) RecentExpenses(ctx context.Context, sender string) ExpenseSummary {
	records, err := m.repo.ExpensesBySender(ctx, sender, store.RecentExpensesLimit)
	if err != nil {
		m.Error(ctx, "failed to get expenses", "sender", sender, "err", err)
		return ExpenseSummary{}
	}

	summary := ExpenseSummary{Records: records}
	for _, r := range records {
		summary.Total = summary.Total.Add(r.Amount)
	}

	return summary
}

// Budget methods

// SetBudget appends a BudgetRecord. Budgets are append-only; the effective
// limit per category is resolved at read time, latest record wins.
func (m *Manager) SetBudget(ctx context.Context, sender, category string, limit decimal.Decimal) error {
	err := m.repo.AddBudget(ctx, store.BudgetRecord{
		TelegramID:   sender,
		Category:     category,
		MonthlyLimit: limit,
		CreatedAt:    store.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to set budget: %w", err)
	}

	m.Print(ctx, "budget set", "sender", sender, "category", category, "limit", limit)
	return nil
}

// BudgetUsage is the utilization of one budget category for the current
// calendar month.
type BudgetUsage struct {
	Category string
	Limit    decimal.Decimal
	Used     decimal.Decimal
	Percent  int64 // floor(used/limit*100), 0 when limit is not positive
}

// BudgetReport computes per-category utilization for the current UTC calendar
// month. Returns nil when no budgets are set (or the store is unreachable).
func (m *Manager) BudgetReport(ctx context.Context, sender string) []BudgetUsage {
	budgets, err := m.repo.BudgetsBySender(ctx, sender, store.BudgetsLimit)
	if err != nil {
		m.Error(ctx, "failed to get budgets", "sender", sender, "err", err)
		return nil
	}
	if len(budgets) == 0 {
		return nil
	}

	expenses, err := m.repo.ExpensesBySenderSince(ctx, sender, monthStart(time.Now()), store.ExpensesScanLimit)
	if err != nil {
		m.Error(ctx, "failed to get monthly expenses", "sender", sender, "err", err)
		expenses = nil // report budgets with zero usage rather than nothing
	}

	usage := make(map[string]decimal.Decimal)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = "other"
		}
		usage[cat] = usage[cat].Add(e.Amount)
	}

	// latest record per category wins, category order is first appearance
	effective := make(map[string]store.BudgetRecord)
	var order []string
	for _, b := range budgets {
		prev, seen := effective[b.Category]
		if !seen {
			order = append(order, b.Category)
			effective[b.Category] = b
			continue
		}
		if b.CreatedAt.After(prev.CreatedAt.Time) {
			effective[b.Category] = b
		}
	}

	report := make([]BudgetUsage, 0, len(order))
	for _, cat := range order {
		b := effective[cat]
		report = append(report, BudgetUsage{
			Category: cat,
			Limit:    b.MonthlyLimit,
			Used:     usage[cat],
			Percent:  percentOf(usage[cat], b.MonthlyLimit),
		})
	}

	return report
}

// monthStart returns the first instant of now's calendar month in UTC.
func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Portfolio methods

// PortfolioValue is the approximate valuation of one stored portfolio.
type PortfolioValue struct {
	Name  string
	Value decimal.Decimal
}

// Portfolios values each stored portfolio as the plain sum of its holdings'
// "value" fields; holdings without a value count as zero.
func (m *Manager) Portfolios(ctx context.Context, sender string) []PortfolioValue {
	records, err := m.repo.PortfoliosBySender(ctx, sender, store.PortfoliosLimit)
	if err != nil {
		m.Error(ctx, "failed to get portfolios", "sender", sender, "err", err)
		return nil
	}

	values := make([]PortfolioValue, 0, len(records))
	for _, r := range records {
		name := r.Name
		if name == "" {
			name = "unnamed"
		}

		total := decimal.Zero
		for _, h := range r.Data.Holdings {
			if h.Value != nil {
				total = total.Add(*h.Value)
			}
		}

		values = append(values, PortfolioValue{Name: name, Value: total})
	}

	return values
}

// Stats methods

// Stats holds the quick savings heuristics behind /stats.
type Stats struct {
	TotalIncome   decimal.Decimal
	TotalExpenses decimal.Decimal
	Savings       decimal.Decimal // max(income-expenses, 0)
	SavingsRate   int64           // floor(savings/income*100), only valid when income > 0
}

// HasIncome reports whether any income is recorded; when false the bot
// prompts for /addincome instead of computing a rate.
func (s Stats) HasIncome() bool {
	return s.TotalIncome.IsPositive()
}

func (m *Manager) Stats(ctx context.Context, sender string) Stats {
	incomes, err := m.repo.IncomesBySender(ctx, sender, store.IncomesLimit)
	if err != nil {
		m.Error(ctx, "failed to get incomes for stats", "sender", sender, "err", err)
	}
	expenses, err := m.repo.ExpensesBySender(ctx, sender, store.ExpensesScanLimit)
	if err != nil {
		m.Error(ctx, "failed to get expenses for stats", "sender", sender, "err", err)
	}

	var stats Stats
	for _, i := range incomes {
		stats.TotalIncome = stats.TotalIncome.Add(i.Amount)
	}
	for _, e := range expenses {
		stats.TotalExpenses = stats.TotalExpenses.Add(e.Amount)
	}

	if !stats.HasIncome() {
		return stats
	}

	stats.Savings = stats.TotalIncome.Sub(stats.TotalExpenses)
	if stats.Savings.IsNegative() {
		stats.Savings = decimal.Zero
	}
	stats.SavingsRate = percentOf(stats.Savings, stats.TotalIncome)

	return stats
}

// percentOf returns floor(part/whole*100), or 0 when whole is not positive.
func percentOf(part, whole decimal.Decimal) int64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).IntPart()
}

// Consent methods

// ParseConsentToken maps a user-supplied consent argument onto a boolean.
// Accepted (case-insensitive): yes/y/1/true and no/n/0/false.
func ParseConsentToken(token string) (value, ok bool) {
	switch strings.ToLower(token) {
	case "yes", "y", "1", "true":
		return true, true
	case "no", "n", "0", "false":
		return false, true
	default:
		return false, false
	}
}

// RecordConsent appends a ConsentRecord with the ai_advice scope.
func (m *Manager) RecordConsent(ctx context.Context, sender string, consented bool) error {
	err := m.repo.AddConsent(ctx, store.ConsentRecord{
		TelegramID: sender,
		Consented:  consented,
		Scope:      store.ConsentScopeAIAdvice,
		CreatedAt:  store.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to record consent: %w", err)
	}

	m.Print(ctx, "consent recorded", "sender", sender, "consented", consented)
	return nil
}

// Message mirror

// MirrorMessage copies an inbound message into the remote messages collection.
func (m *Manager) MirrorMessage(ctx context.Context, msg store.MessageRecord) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = store.Now()
	}
	if err := m.repo.AddMessage(ctx, msg); err != nil {
		return fmt.Errorf("failed to mirror message: %w", err)
	}
	return nil
}

// Export

// ExportHeader is the first line of every CSV export.
const ExportHeader = "type,amount,category_or_freq,note_or_desc,created_at"

// ExportCSV renders up to 500 expenses and 500 incomes as unified CSV lines,
// header first, expenses before incomes.
func (m *Manager) ExportCSV(ctx context.Context, sender string) []string {
	expenses, err := m.repo.ExpensesBySender(ctx, sender, store.ExportLimit)
	if err != nil {
		m.Error(ctx, "failed to get expenses for export", "sender", sender, "err", err)
	}
	incomes, err := m.repo.IncomesBySender(ctx, sender, store.ExportLimit)
	if err != nil {
		m.Error(ctx, "failed to get incomes for export", "sender", sender, "err", err)
	}

	lines := make([]string, 0, 1+len(expenses)+len(incomes))
	lines = append(lines, ExportHeader)
	for _, e := range expenses {
		lines = append(lines, fmt.Sprintf("expense,%s,%s,%s,%s", e.Amount, e.Category, e.Note, exportTime(e.CreatedAt)))
	}
	for _, i := range incomes {
		lines = append(lines, fmt.Sprintf("income,%s,%s,%s,%s", i.Amount, i.Frequency, i.Description, exportTime(i.CreatedAt)))
	}

	return lines
}

func exportTime(t store.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.999999")
}
