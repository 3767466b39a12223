package app

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/vmkteam/appkit"
)

const (
	defaultMessagesLimit = 200
	maxMessagesLimit     = 1000
)

// runHTTPServer is a function that starts http listener using labstack/echo.
func (a *App) runHTTPServer(ctx context.Context, host string, port int) error {
	listenAddress := fmt.Sprintf("%s:%d", host, port)
	addr := "http://" + listenAddress
	a.Print(ctx, "starting http listener", "url", addr)

	return a.echo.Start(listenAddress)
}

// messageItem is the wire form of one logged message.
type messageItem struct {
	ID        int64     `json:"id"`
	Platform  string    `json:"platform"`
	Sender    string    `json:"sender"`
	UpdateID  int64     `json:"update_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// registerHandlers register echo handlers.
func (a *App) registerHandlers() {
	if a.tgBot != nil {
		a.echo.POST("/webhook/telegram", echo.WrapHandler(a.tgBot.WebhookHandler()))
	}

	// recent inbound messages from the local log, newest first
	a.echo.GET("/messages", func(c echo.Context) error {
		limit := defaultMessagesLimit
		if raw := c.QueryParam("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				return c.String(http.StatusBadRequest, "invalid limit")
			}
			limit = min(n, maxMessagesLimit)
		}

		entries, err := a.messages.Recent(c.Request().Context(), limit)
		if err != nil {
			a.Error(c.Request().Context(), "failed to read message log", "err", err)
			return c.String(http.StatusInternalServerError, "log error")
		}

		items := make([]messageItem, 0, len(entries))
		for _, e := range entries {
			items = append(items, messageItem{
				ID:        e.ID,
				Platform:  e.Platform,
				Sender:    e.Sender,
				UpdateID:  e.UpdateID,
				Text:      e.Text,
				CreatedAt: e.CreatedAt,
			})
		}

		return c.JSON(http.StatusOK, echo.Map{"messages": items})
	})
}

// registerDebugHandlers adds /debug/pprof handlers into a.echo instance.
func (a *App) registerDebugHandlers() {
	dbg := a.echo.Group("/debug")

	// add pprof integration
	dbg.Any("/pprof/*", appkit.PprofHandler)

	// add healthcheck
	a.echo.GET("/status", func(c echo.Context) error {
		// test local message log connection
		err := a.messages.Ping(c.Request().Context())
		if err != nil {
			a.Error(c.Request().Context(), "failed to check db connection", "err", err)
			return c.String(http.StatusInternalServerError, "DB error")
		}
		return c.String(http.StatusOK, "OK")
	})

	// show all routes in devel mode
	if a.cfg.Server.IsDevel {
		a.echo.GET("/", appkit.RenderRoutes(a.appName, a.echo))
	}
}
