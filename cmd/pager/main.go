package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/pager-receiver/internal/application"
	"github.com/example/pager-receiver/internal/audio"
	"github.com/example/pager-receiver/internal/clock"
	"github.com/example/pager-receiver/internal/config"
	"github.com/example/pager-receiver/internal/display"
	"github.com/example/pager-receiver/internal/httpapi"
	"github.com/example/pager-receiver/internal/inbox"
	"github.com/example/pager-receiver/internal/notify"
	"github.com/example/pager-receiver/internal/persistence"
	"github.com/example/pager-receiver/internal/persistence/sqlite"
	"github.com/example/pager-receiver/internal/radiolink"
	"github.com/example/pager-receiver/internal/scheduler"
)

const loopInterval = 50 * time.Millisecond

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	book, err := radiolink.ParseAddressBook(cfg.Subscriptions)
	if err != nil {
		logger.Error("failed to parse subscriptions", "error", err)
		os.Exit(1)
	}

	store := inbox.NewStore(cfg.InboxCapacity)
	pagerClock := clock.New(cfg.TZOffsetMinutes, clock.WithLogger(logger))
	mirror := persistence.NewFileMirror(cfg.InboxPath, logger)
	if mirror.Degraded() {
		logger.Warn("inbox mirror unavailable, running memory-only", "path", cfg.InboxPath)
	}

	var archive application.Archiver
	if cfg.ArchiveDSN != "" {
		db, err := sqlite.Open(cfg.ArchiveDSN)
		if err != nil {
			logger.Error("failed to open archive", "error", err)
			os.Exit(1)
		}
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("failed to close archive", "error", cerr)
			}
		}()
		if err := db.Migrate(context.Background()); err != nil {
			logger.Error("failed to apply archive migrations", "error", err)
			os.Exit(1)
		}
		archive = db
	}

	led := notify.IndicatorFunc(func(on bool) {
		logger.Debug("led", "on", on)
	})
	notifier := notify.NewNotifier(led, audio.NewBuzzer(logger), nil)
	reminder := notify.NewReminder(led, notifier)
	power := display.NewPower(cfg.DisplayTimeout, time.Now())

	service := application.NewPagerService(store, pagerClock, mirror, archive, notifier, reminder, power, book, time.Now, logger)
	service.Restore(ctx)

	feed, err := newFrameSource(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open broadcast source", "error", err)
		os.Exit(1)
	}

	input := application.NewInputQueue()
	if cfg.ListenAddr != "" {
		// Frames arrive over TCP, so standard input is free for key commands.
		go readKeys(os.Stdin, input, logger)
	}

	cache := httpapi.NewCache()
	steps := service.Steps(ctx, input, feed, func(s application.StatusSnapshot) {
		logger.Debug("status", "clock", s.Clock.ClockLabel(), "position", s.Position, "total", s.Total)
	})
	steps = append(steps, func(time.Time) {
		snap := httpapi.Snapshot{Status: service.Status(), Messages: service.Messages()}
		if msg, _, ok := service.CurrentMessage(); ok {
			snap.Current = msg
			snap.HasCurrent = true
		}
		cache.Update(snap)
	})

	if cfg.HTTPPort > 0 {
		startAPI(ctx, cfg.HTTPPort, cache, logger)
	}

	logger.Info("pager receiver running",
		"inbox_path", cfg.InboxPath,
		"capacity", cfg.InboxCapacity,
		"subscriptions", book.Len(),
	)

	loop := scheduler.New(steps)
	loop.Run(ctx, loopInterval)

	service.Shutdown(context.Background())
	logger.Info("pager receiver stopped")
}

// newFrameSource reads broadcast frames from a TCP listener when configured,
// otherwise from standard input.
func newFrameSource(ctx context.Context, cfg config.Config, logger *slog.Logger) (radiolink.Feed, error) {
	if cfg.ListenAddr == "" {
		return radiolink.NewStreamFeed(os.Stdin, logger), nil
	}

	listener, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
	}

	reader, writer := io.Pipe()
	go func() {
		<-ctx.Done()
		listener.Close()
	}()
	go func() {
		defer writer.Close()
		for {
			conn, err := listener.Accept()
			if err != nil {
				if ctx.Err() == nil {
					logger.Error("accept failed", "error", err)
				}
				return
			}
			logger.Info("broadcast source connected", "remote", conn.RemoteAddr())
			if _, err := io.Copy(writer, conn); err != nil {
				logger.Warn("broadcast source read failed", "error", err)
			}
			conn.Close()
		}
	}()

	return radiolink.NewStreamFeed(reader, logger), nil
}

// readKeys buffers single-character commands: p previous, n next, o open inbox.
func readKeys(r io.Reader, input *application.InputQueue, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		switch scanner.Text() {
		case "p":
			input.Push(application.InputPrevious)
		case "n":
			input.Push(application.InputNext)
		case "o":
			input.Push(application.InputOpenInbox)
		default:
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("key reader stopped", "error", err)
	}
}

func startAPI(ctx context.Context, port int, cache *httpapi.Cache, logger *slog.Logger) {
	handler := httpapi.NewRouter(httpapi.RouterConfig{
		Status:     httpapi.NewStatusHandler(cache, logger),
		Middleware: []func(http.Handler) http.Handler{httpapi.RequestLogger(logger)},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown status API", "error", err)
		}
	}()

	go func() {
		logger.Info("status API listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status API encountered error", "error", err)
		}
	}()
}
