package telegram

import (
	"context"
	"strings"
	"time"
)

const (
	replyUnknownCommand = "Command not recognized. Use /help to see available commands."
	replyInternalError  = "An error occurred while processing your command."
)

// handlerFunc is the unit of logic bound to one command token. It returns the
// reply text; an empty reply means nothing is sent.
type handlerFunc func(ctx context.Context, in *Inbound, args []string) string

type command struct {
	name   string
	handle handlerFunc
}

// buildCommandTable builds the dispatch table once at startup.
func (b *Bot) buildCommandTable() map[string]command {
	commands := []command{
		{"/start", b.handleStart},
		{"/help", b.handleHelp},
		{"/addincome", b.handleAddIncome},
		{"/income", b.handleIncome},
		{"/addexpense", b.handleAddExpense},
		{"/expense", b.handleExpense},
		{"/setbudget", b.handleSetBudget},
		{"/budget", b.handleBudget},
		{"/portfolio", b.handlePortfolio},
		{"/stats", b.handleStats},
		{"/link", b.handleLink},
		{"/consent", b.handleConsent},
		{"/export", b.handleExport},
	}

	table := make(map[string]command, len(commands))
	for _, c := range commands {
		table[c.name] = c
	}
	return table
}

// route tokenizes the inbound text and dispatches to a handler. It is the
// error boundary: a panicking handler yields the generic failure reply, and
// the webhook transport still sees a successful ack.
func (b *Bot) route(ctx context.Context, in *Inbound) (reply string) {
	start := time.Now()
	defer func() {
		handlerDuration.Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			errorsTotal.WithLabelValues("handler_panic").Inc()
			b.Error(ctx, "command handler panic", "sender", in.Sender, "text", in.Text, "panic", r)
			reply = replyInternalError
		}
	}()

	parts := strings.Fields(in.Text)
	if len(parts) == 0 {
		return ""
	}

	name := strings.ToLower(parts[0])
	args := parts[1:]

	c, ok := b.commands[name]
	if !ok {
		commandsProcessed.WithLabelValues("unknown").Inc()
		b.Print(ctx, "unknown command", "text", in.Text, "sender", in.Sender)
		return replyUnknownCommand
	}

	commandsProcessed.WithLabelValues(strings.TrimPrefix(name, "/")).Inc()
	return c.handle(ctx, in, args)
}
