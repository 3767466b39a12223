package store

import (
	"context"
	"time"
)

// Select limits per collection, matching the reply sizes of the bot commands.
const (
	IncomesLimit        = 50
	RecentExpensesLimit = 5
	ExpensesScanLimit   = 1000
	BudgetsLimit        = 100
	PortfoliosLimit     = 50
	ExportLimit         = 500
)

// Repo exposes the per-collection operations the bot needs, always filtered
// by sender identity.
type Repo struct {
	client *Client
}

// NewRepo returns new repository over the REST client.
func NewRepo(client *Client) Repo {
	return Repo{client: client}
}

func senderFilter(sender string) Filter {
	return Filter{Field: "telegram_id", Op: OpEq, Value: sender}
}

/*** messages ***/

// AddMessage mirrors an inbound chat message to the remote store.
func (r Repo) AddMessage(ctx context.Context, msg MessageRecord) error {
	return r.client.Insert(ctx, CollectionMessages, msg)
}

/*** incomes ***/

func (r Repo) AddIncome(ctx context.Context, income IncomeRecord) error {
	return r.client.Insert(ctx, CollectionIncomes, income)
}

func (r Repo) IncomesBySender(ctx context.Context, sender string, limit int) (incomes []IncomeRecord, err error) {
	err = r.client.Select(ctx, CollectionIncomes,
		[]Filter{senderFilter(sender)},
		"amount,frequency,description,created_at", limit, &incomes)
	return
}

/*** expenses ***/

func (r Repo) AddExpense(ctx context.Context, expense ExpenseRecord) error {
	return r.client.Insert(ctx, CollectionExpenses, expense)
}

func (r Repo) ExpensesBySender(ctx context.Context, sender string, limit int) (expenses []ExpenseRecord, err error) {
	err = r.client.Select(ctx, CollectionExpenses,
		[]Filter{senderFilter(sender)},
		"amount,category,note,created_at", limit, &expenses)
	return
}

// ExpensesBySenderSince returns expenses created at or after the given instant.
func (r Repo) ExpensesBySenderSince(ctx context.Context, sender string, since time.Time, limit int) (expenses []ExpenseRecord, err error) {
	err = r.client.Select(ctx, CollectionExpenses,
		[]Filter{
			senderFilter(sender),
			{Field: "created_at", Op: OpGte, Value: since.UTC().Format("2006-01-02T15:04:05.999999")},
		},
		"amount,category,created_at", limit, &expenses)
	return
}

/*** budgets ***/

func (r Repo) AddBudget(ctx context.Context, budget BudgetRecord) error {
	return r.client.Insert(ctx, CollectionBudgets, budget)
}

func (r Repo) BudgetsBySender(ctx context.Context, sender string, limit int) (budgets []BudgetRecord, err error) {
	err = r.client.Select(ctx, CollectionBudgets,
		[]Filter{senderFilter(sender)},
		"category,monthly_limit,created_at", limit, &budgets)
	return
}

/*** portfolios ***/

func (r Repo) PortfoliosBySender(ctx context.Context, sender string, limit int) (portfolios []PortfolioRecord, err error) {
	err = r.client.Select(ctx, CollectionPortfolios,
		[]Filter{senderFilter(sender)},
		"name,data", limit, &portfolios)
	return
}

/*** consents ***/

func (r Repo) AddConsent(ctx context.Context, consent ConsentRecord) error {
	return r.client.Insert(ctx, CollectionConsents, consent)
}
