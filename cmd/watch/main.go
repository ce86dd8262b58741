// Command watch is a terminal dashboard: it loads the caller's expenses,
// follows the push channel and redraws the summary on every change.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	"spendwise/internal/client"
	"spendwise/internal/dashboard"
	"spendwise/internal/logger"
	"spendwise/internal/notifier"
)

const reconnectDelay = 3 * time.Second

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin *os.File, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.SetOutput(stderr)

	baseURL := fs.String("url", "http://localhost:8080", "API base URL")
	email := fs.String("email", "", "Email address")
	category := fs.String("category", "", "Only show this category")
	days := fs.Int("days", 7, "Days shown in the trend")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		fs.PrintDefaults()
		return fmt.Errorf("missing required flags: email")
	}

	password := os.Getenv("SPENDWISE_PASSWORD")
	if password == "" {
		if !term.IsTerminal(int(stdin.Fd())) {
			return fmt.Errorf("no terminal for password prompt; set SPENDWISE_PASSWORD")
		}
		fmt.Fprint(stdout, "Password: ")
		b, err := term.ReadPassword(int(stdin.Fd()))
		fmt.Fprintln(stdout)
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(b)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*baseURL, nil)
	if _, err := c.Login(ctx, *email, password); err != nil {
		return err
	}

	w := newWatcher(c, stdout, *days)
	w.view.SetFilter(dashboard.Filter{Category: *category})
	w.follow(ctx)
	return nil
}

// watcher drives one terminal session. Failures become a notice line on
// the next redraw; the loaded data is kept.
type watcher struct {
	client *client.Client
	view   *dashboard.View
	out    io.Writer
	days   int
	now    func() time.Time

	mu     sync.Mutex
	notice string
}

func newWatcher(c *client.Client, out io.Writer, days int) *watcher {
	return &watcher{client: c, view: dashboard.NewView(), out: out, days: days, now: time.Now}
}

// follow reloads and resubscribes until ctx ends. Events are not replayed,
// so every reconnect starts from a fresh snapshot.
func (w *watcher) follow(ctx context.Context) {
	for {
		if err := w.reload(ctx); err != nil {
			w.setNotice("refresh failed: " + err.Error())
		}
		w.render()

		err := w.client.Subscribe(ctx, w.handle)
		if ctx.Err() != nil {
			return
		}
		w.setNotice(fmt.Sprintf("live updates interrupted (%v), reconnecting", err))
		w.render()

		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func (w *watcher) reload(ctx context.Context) error {
	expenses, err := w.client.ListExpenses(ctx, client.ListQuery{})
	if err != nil {
		return err
	}
	w.view.Load(expenses)
	w.setNotice("")
	return nil
}

func (w *watcher) handle(ev notifier.Event) {
	switch {
	case ev.Name == "connected":
		return
	case strings.HasPrefix(ev.Name, "expense"):
		if err := w.view.Apply(ev); err != nil {
			logger.Named("watch").Warnw("ignoring event", "event", ev.Name, "error", err)
			w.setNotice("ignored a malformed " + ev.Name + " event")
		}
		w.render()
	}
}

func (w *watcher) setNotice(msg string) {
	w.mu.Lock()
	w.notice = msg
	w.mu.Unlock()
}

// render redraws the whole screen.
func (w *watcher) render() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	shown := w.view.Displayed()
	summary := dashboard.Summarize(shown, now)

	var b strings.Builder
	b.WriteString("\033[H\033[2J")
	fmt.Fprintf(&b, "Spendwise  %s\n\n", now.Format("2006-01-02 15:04"))
	if f := w.view.Filter(); f.Category != "" && f.Category != dashboard.AllCategories {
		fmt.Fprintf(&b, "Category: %s\n", f.Category)
	}
	fmt.Fprintf(&b, "Total: %s   This month: %s   Records: %d   Categories: %d\n\n",
		summary.Total.StringFixed(2), summary.ThisMonth.StringFixed(2), summary.Count, summary.Categories)

	b.WriteString("Last days\n")
	for _, d := range dashboard.DailyTrend(shown, now, w.days) {
		fmt.Fprintf(&b, "  %s  %10s\n", d.Day.Format("Jan 02"), d.Total.StringFixed(2))
	}

	b.WriteString("\nDate        Amount      Category        Description\n")
	for _, e := range shown {
		fmt.Fprintf(&b, "%s  %10s  %-14s  %s\n",
			e.Date.UTC().Format("2006-01-02"), e.Amount.StringFixed(2), e.Category, e.Description)
	}

	if w.notice != "" {
		fmt.Fprintf(&b, "\n! %s\n", w.notice)
	}
	_, _ = io.WriteString(w.out, b.String())
}
