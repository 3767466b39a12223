package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Blu3B0y/finsight/pkg/finsight"
	"github.com/Blu3B0y/finsight/pkg/msglog"
	"github.com/Blu3B0y/finsight/pkg/store"
	"github.com/Blu3B0y/finsight/pkg/worker"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/vmkteam/embedlog"
)

type Config struct {
	Token         string
	WebhookSecret string
	Debug         bool
	DashboardURL  string
}

// Bot receives webhook updates, routes commands and sends replies. Replies
// and all persistence run as background tasks; the webhook ack never waits
// for them.
type Bot struct {
	embedlog.Logger
	api          *bot.Bot
	mgr          *finsight.Manager
	messages     *msglog.Log
	pool         *worker.Pool
	commands     map[string]command
	dashboardURL string
	debug        bool
}

// New creates a new Telegram bot instance.
func New(cfg Config, mgr *finsight.Manager, messages *msglog.Log, pool *worker.Pool, logger embedlog.Logger) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram token is required")
	}

	b := &Bot{
		Logger:       logger,
		mgr:          mgr,
		messages:     messages,
		pool:         pool,
		dashboardURL: cfg.DashboardURL,
		debug:        cfg.Debug,
	}
	b.commands = b.buildCommandTable()

	opts := []bot.Option{
		bot.WithDefaultHandler(b.handleUpdate),
	}
	if cfg.WebhookSecret != "" {
		opts = append(opts, bot.WithWebhookSecretToken(cfg.WebhookSecret))
	}
	if cfg.Debug {
		opts = append(opts, bot.WithDebug())
	}

	api, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	b.api = api

	return b, nil
}

// Start runs the webhook update loop until ctx is canceled.
func (b *Bot) Start(ctx context.Context) error {
	me, err := b.api.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("failed to get bot info: %w", err)
	}

	b.Print(ctx, "telegram bot started", "username", me.Username, "id", me.ID)
	b.api.StartWebhook(ctx)

	return nil
}

// Stop gracefully stops the bot.
func (b *Bot) Stop(ctx context.Context) {
	b.Print(ctx, "stopping telegram bot")
}

// WebhookHandler returns the HTTP handler the app mounts on the webhook
// route. Secret-token validation happens inside; the handler always acks
// valid deliveries so the platform never retries on handler faults.
func (b *Bot) WebhookHandler() http.HandlerFunc {
	return b.api.WebhookHandler()
}

// handleUpdate funnels every update into the command router.
func (b *Bot) handleUpdate(ctx context.Context, _ *bot.Bot, update *models.Update) {
	in, ok := newInbound(update)
	if !ok {
		return
	}

	b.logMessage(in)

	if strings.TrimSpace(in.Text) == "" {
		// acknowledged, logged, no reply
		messagesProcessed.WithLabelValues("empty").Inc()
		return
	}
	messagesProcessed.WithLabelValues("text").Inc()

	if reply := b.route(ctx, in); reply != "" {
		b.send(in.ChatID, reply)
	}
}

// logMessage appends the inbound message to the local audit log and mirrors
// it to the remote store, both in the background.
func (b *Bot) logMessage(in *Inbound) {
	entry := msglog.Entry{
		Platform: platformTelegram,
		Sender:   in.Sender,
		UpdateID: in.UpdateID,
		Text:     in.Text,
		Raw:      string(in.Raw),
	}
	b.pool.Enqueue("log_message", func(ctx context.Context) error {
		return b.messages.Append(ctx, entry)
	})

	record := store.MessageRecord{
		Platform:  platformTelegram,
		Sender:    in.Sender,
		Username:  in.Username,
		Text:      in.Text,
		Raw:       in.Raw,
		CreatedAt: store.Now(),
	}
	b.pool.Enqueue("mirror_message", func(ctx context.Context) error {
		return b.mgr.MirrorMessage(ctx, record)
	})
}

// send delivers a reply in the background, best-effort.
func (b *Bot) send(chatID int64, text string) {
	b.pool.Enqueue("send_reply", func(ctx context.Context) error {
		_, err := b.api.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: chatID,
			Text:   text,
		})
		if err != nil {
			errorsTotal.WithLabelValues("send_reply").Inc()
			return fmt.Errorf("send reply to chat %d: %w", chatID, err)
		}
		repliesSent.Inc()
		return nil
	})
}
