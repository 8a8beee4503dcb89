// Command hubclient is a terminal client for the hub's notification center.
// It signs in with HUB_TOKEN, keeps a live push connection, shows toasts and
// desktop popups for new notifications and renders the bell panel.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/herraise/hubclient/pkg/api"
	"github.com/herraise/hubclient/pkg/auth"
	"github.com/herraise/hubclient/pkg/config"
	"github.com/herraise/hubclient/pkg/hub"
	"github.com/herraise/hubclient/pkg/logger"
	"github.com/herraise/hubclient/pkg/osnotify"
	"github.com/herraise/hubclient/pkg/requestid"
	"github.com/herraise/hubclient/pkg/socket"
	"github.com/herraise/hubclient/pkg/tui"
)

func main() {
	logout := flag.Bool("logout", false, "clear the locally stored notifications on exit")
	flag.Parse()

	if err := run(*logout); err != nil {
		fmt.Fprintln(os.Stderr, "hubclient:", err)
		os.Exit(1)
	}
}

func run(logout bool) error {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}
	if cfg.Token == "" {
		return errors.New("HUB_TOKEN is not set")
	}

	out, logFile, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer logFile.Close()

	log := logger.New(
		logger.WithEnvironment(cfg.Env, appName),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithOutput(out),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, storageCloser, err := openStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer storageCloser.Close()

	holder := auth.NewHolder()
	client, err := api.New(cfg.APIURL,
		api.WithTokenSource(holder),
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithUserAgent(appName),
		api.WithLogger(log),
	)
	if err != nil {
		return err
	}

	// Clicks on toasts and popups arrive on other goroutines.
	var program atomic.Pointer[tea.Program]
	navigate := func(target string) {
		log.LogAttrs(ctx, slog.LevelInfo, "navigate", logger.Target(target))
		if p := program.Load(); p != nil {
			go p.Send(tui.NavigateMsg{Target: target})
		}
	}

	opts := []hub.Option{
		hub.WithHolder(holder),
		hub.WithNavigator(navigate),
		hub.WithHistoryPageSize(cfg.HistoryPageSize),
		hub.WithReminderInterval(cfg.ReminderInterval),
		hub.WithLogger(log),
		hub.WithSocket(cfg.APIURL, cfg.SocketPath,
			socket.WithReconnectAttempts(cfg.ReconnectAttempts),
			socket.WithReconnectDelay(cfg.ReconnectDelay),
		),
	}
	if cfg.DesktopNotifications {
		notifier := osnotify.New(osnotify.NewDesktopBackend("Hub"),
			osnotify.WithStorage(storage),
			osnotify.WithNavigator(osnotify.NavigatorFunc(navigate)),
			osnotify.WithLogger(log),
		)
		defer notifier.Close()
		opts = append(opts, hub.WithNotifier(notifier))
	}

	session, err := hub.New(client, storage, opts...)
	if err != nil {
		return err
	}
	if err := session.Init(ctx, cfg.Token); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	defer func() {
		shutdownCtx := context.WithoutCancel(ctx)
		if logout {
			session.Teardown(shutdownCtx)
			return
		}
		session.Close(shutdownCtx)
	}()

	id := session.Identity()
	user := id.Name
	if user == "" {
		user = id.UserID
	}
	modelOpts := []tui.Option{tui.WithUser(user)}
	if sock := session.Socket(); sock != nil {
		modelOpts = append(modelOpts, tui.WithStatus(sock))
	}
	model := tui.New(ctx, session.Panel(), session.Toasts(), modelOpts...)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	program.Store(p)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
