package telegram

import (
	"context"
	"fmt"
	"strings"

	"github.com/Blu3B0y/finsight/pkg/finsight"
	"github.com/Blu3B0y/finsight/pkg/money"
)

// exportPreviewLines caps the /export reply; the full CSV lives on the
// dashboard, not in chat.
const exportPreviewLines = 10

// handleStart handles /start command
func (b *Bot) handleStart(ctx context.Context, in *Inbound, _ []string) string {
	b.Print(ctx, "user started bot", "sender", in.Sender, "username", in.Username)

	dashboard := b.dashboardURL
	if dashboard == "" {
		dashboard = "<dashboard link>"
	}

	return "Welcome to FinSight! I can store your income/expenses and show quick stats.\n" +
		"Use /help to see commands.\n" +
		"For detailed visual advice, open your dashboard: " + dashboard
}

// handleHelp handles /help command
func (b *Bot) handleHelp(_ context.Context, _ *Inbound, _ []string) string {
	return "/income — show your incomes\n" +
		"/addincome <amount> [frequency] [desc]\n" +
		"/expense — show recent expenses\n" +
		"/addexpense <amount> <category> [note]\n" +
		"/budget — show budgets\n" +
		"/setbudget <category> <limit>\n" +
		"/portfolio — show portfolios\n" +
		"/stats — quick savings/budget heuristics\n" +
		"/link — get dashboard link\n" +
		"/consent — opt-in/out for AI consultant\n" +
		"/export — get CSV of recent transactions\n"
}

// handleAddIncome handles /addincome <amount> [frequency] [description...]
func (b *Bot) handleAddIncome(_ context.Context, in *Inbound, args []string) string {
	if len(args) < 1 {
		return "Usage: /addincome <amount> [frequency] [description]"
	}

	amount, ok := money.Parse(args[0])
	if !ok {
		return "Could not parse amount. Usage: /addincome 50000 monthly salary"
	}

	frequency := finsight.DefaultFrequency
	if len(args) >= 2 {
		frequency = args[1]
	}
	description := strings.Join(args[2:], " ")

	sender := in.Sender
	b.pool.Enqueue("insert_income", func(ctx context.Context) error {
		return b.mgr.AddIncome(ctx, sender, amount, frequency, description)
	})

	return fmt.Sprintf("Added income %s (%s)", money.Format(amount), frequency)
}

// handleIncome handles /income
func (b *Bot) handleIncome(ctx context.Context, in *Inbound, _ []string) string {
	summary := b.mgr.Incomes(ctx, in.Sender)
	if len(summary.Records) == 0 {
		return "No incomes found. Add one with /addincome <amount> monthly salary"
	}

	var sb strings.Builder
	sb.WriteString("Your incomes:\n")
	for _, r := range summary.Records {
		fmt.Fprintf(&sb, "%s — %s — %s\n", money.Format(r.Amount), r.Frequency, r.Description)
	}
	fmt.Fprintf(&sb, "\nTotal monthly (approx): %s", money.Format(summary.Total))

	return sb.String()
}

// handleAddExpense handles /addexpense <amount> <category> [note...]
func (b *Bot) handleAddExpense(_ context.Context, in *Inbound, args []string) string {
	if len(args) < 2 {
		return "Usage: /addexpense <amount> <category> [note]"
	}

	amount, ok := money.Parse(args[0])
	if !ok {
		return "Could not parse amount. Usage: /addexpense 250 food lunch"
	}

	category := args[1]
	note := strings.Join(args[2:], " ")

	sender := in.Sender
	b.pool.Enqueue("insert_expense", func(ctx context.Context) error {
		return b.mgr.AddExpense(ctx, sender, amount, category, note)
	})

	return fmt.Sprintf("Added expense %s (%s)", money.Format(amount), category)
}

// handleExpense handles /expense
func (b *Bot) handleExpense(ctx context.Context, in *Inbound, _ []string) string {
	summary := b.mgr.RecentExpenses(ctx, in.Sender)
	if len(summary.Records) == 0 {
		return "No expenses recorded. Add one with /addexpense 250 food lunch"
	}

	var sb strings.Builder
	sb.WriteString("Recent expenses:\n")
	for _, r := range summary.Records {
		fmt.Fprintf(&sb, "%s — %s — %s\n", money.Format(r.Amount), r.Category, r.Note)
	}
	fmt.Fprintf(&sb, "\nTotal (last %d): %s", len(summary.Records), money.Format(summary.Total))

	return sb.String()
}

// handleSetBudget handles /setbudget <category> <limit>
func (b *Bot) handleSetBudget(_ context.Context, in *Inbound, args []string) string {
	if len(args) < 2 {
		return "Usage: /setbudget <category> <monthly_limit>"
	}

	category := args[0]
	limit, ok := money.Parse(args[1])
	if !ok {
		return "Could not parse limit amount. Example: /setbudget food 5000"
	}

	sender := in.Sender
	b.pool.Enqueue("insert_budget", func(ctx context.Context) error {
		return b.mgr.SetBudget(ctx, sender, category, limit)
	})

	return fmt.Sprintf("Set budget for %s = %s / month", category, money.Format(limit))
}

// handleBudget handles /budget
func (b *Bot) handleBudget(ctx context.Context, in *Inbound, _ []string) string {
	report := b.mgr.BudgetReport(ctx, in.Sender)
	if len(report) == 0 {
		return "No budgets set. Use /setbudget <category> <limit>"
	}

	var sb strings.Builder
	sb.WriteString("Budgets:\n")
	for _, u := range report {
		fmt.Fprintf(&sb, "%s: %s used of %s — %d%%\n",
			u.Category, money.Format(u.Used), money.Format(u.Limit), u.Percent)
	}

	return strings.TrimRight(sb.String(), "\n")
}

// handlePortfolio handles /portfolio
func (b *Bot) handlePortfolio(ctx context.Context, in *Inbound, _ []string) string {
	values := b.mgr.Portfolios(ctx, in.Sender)
	if len(values) == 0 {
		return "No portfolios stored. Add via the app dashboard."
	}

	var sb strings.Builder
	sb.WriteString("Portfolios:\n")
	for _, v := range values {
		fmt.Fprintf(&sb, "%s — approx value %s\n", v.Name, money.Format(v.Value))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// handleStats handles /stats
func (b *Bot) handleStats(ctx context.Context, in *Inbound, _ []string) string {
	stats := b.mgr.Stats(ctx, in.Sender)
	if !stats.HasIncome() {
		return "No income recorded. Add one with /addincome <amount> monthly salary"
	}

	return fmt.Sprintf("Estimated savings: %s (%d%% of income). Suggested target: 20%% (50/30/20 heuristic).",
		money.Format(stats.Savings), stats.SavingsRate)
}

// handleLink handles /link
func (b *Bot) handleLink(_ context.Context, _ *Inbound, _ []string) string {
	url := b.dashboardURL
	if url == "" {
		url = "<dashboard-url>"
	}
	return "Open your dashboard: " + url
}

// handleConsent handles /consent <yes|no>
func (b *Bot) handleConsent(_ context.Context, in *Inbound, args []string) string {
	var token string
	if len(args) > 0 {
		token = args[0]
	}

	value, ok := finsight.ParseConsentToken(token)
	if !ok {
		return "Usage: /consent yes|no\nExample: /consent yes (to allow detailed AI advice)"
	}

	sender := in.Sender
	b.pool.Enqueue("insert_consent", func(ctx context.Context) error {
		return b.mgr.RecordConsent(ctx, sender, value)
	})

	return fmt.Sprintf("Consent set to: %t", value)
}

// handleExport handles /export
func (b *Bot) handleExport(ctx context.Context, in *Inbound, _ []string) string {
	lines := b.mgr.ExportCSV(ctx, in.Sender)
	if len(lines) > exportPreviewLines {
		lines = lines[:exportPreviewLines]
	}

	return "Generated CSV (preview):\n" + strings.Join(lines, "\n") +
		"\n\nFull export available on dashboard."
}
