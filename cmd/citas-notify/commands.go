package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"

	"github.com/nhle/citas-notify/internal/app"
	"github.com/nhle/citas-notify/internal/channel"
	"github.com/nhle/citas-notify/internal/credential"
	"github.com/nhle/citas-notify/internal/model"
	"github.com/nhle/citas-notify/internal/proxy"
	"github.com/nhle/citas-notify/internal/source"
	"github.com/nhle/citas-notify/internal/source/backend"
	"github.com/nhle/citas-notify/internal/store"
	appsync "github.com/nhle/citas-notify/internal/sync"
)

// shutdownTimeout bounds the proxy's graceful shutdown.
const shutdownTimeout = 10 * time.Second

func newClient(cfg *model.AppConfig, token string) *backend.Client {
	return backend.NewClient(cfg.API.BaseURL, token,
		backend.WithTimeout(cfg.API.Timeout()),
		backend.WithMaxRetries(cfg.API.MaxRetries),
	)
}

// openCache opens the snapshot cache. A cache that cannot be opened is
// logged and skipped; the panel works without it.
func openCache(cfg *model.AppConfig, log logrus.FieldLogger) (*store.SQLiteStore, bool) {
	if cfg.Cache.Path == "" {
		return nil, false
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Cache.Path), 0o700); err != nil {
		log.WithError(err).Warn("creating cache directory")
		return nil, false
	}
	s, err := store.NewSQLiteStore(cfg.Cache.Path)
	if err != nil {
		log.WithError(err).Warn("opening snapshot cache")
		return nil, false
	}
	return s, true
}

// storedSession returns the saved token, dropping it when it has expired.
// A missing user id is taken from the token.
func storedSession(cfg *model.AppConfig, vault *credential.Vault, log logrus.FieldLogger) {
	token, err := vault.SessionToken()
	if err != nil {
		log.WithError(err).Warn("reading session token")
		return
	}
	if token == "" {
		return
	}

	if expired, err := credential.TokenExpired(token, time.Now()); err == nil && expired {
		log.Info("stored session token expired")
		if err := vault.ForgetSession(); err != nil {
			log.WithError(err).Warn("forgetting expired token")
		}
		return
	}

	if cfg.Session.UserID <= 0 {
		if id, err := credential.UserIDFromToken(token); err == nil {
			cfg.Session.UserID = id
		}
	}
}

func runPanel(cfg *model.AppConfig, configPath string, log *logrus.Logger) error {
	vault, err := credential.OpenVault()
	if err != nil {
		return err
	}
	storedSession(cfg, vault, log)

	var cache store.Store
	if s, ok := openCache(cfg, log); ok {
		defer s.Close()
		cache = s
	}

	newSession := func(c *model.AppConfig) *appsync.Syncer {
		var snapshots appsync.SnapshotCache
		if cache != nil {
			snapshots = cache
		}
		return appsync.New(appsync.Options{
			Source: newClient(c, ""),
			Cache:  snapshots,
			Channel: channel.Config{
				BaseURL:     channel.SocketBase(c.API.BaseURL, c.API.WSURL),
				Heartbeat:   c.Channel.Heartbeat(),
				Backoff:     channel.Backoff{Base: c.Channel.BaseBackoff(), Max: c.Channel.MaxBackoff()},
				MaxAttempts: c.Channel.MaxAttempts,
				Dialer:      channel.NewWSDialer(c.API.Timeout()),
			},
			Logger: log,
		})
	}

	m := app.New(app.Deps{
		Config:     cfg,
		ConfigPath: configPath,
		Vault:      vault,
		Cache:      cache,
		Logger:     log,
		NewSession: newSession,
	})

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running panel: %w", err)
	}
	return nil
}

func runProxy(cfg *model.AppConfig, log *logrus.Logger) error {
	client := newClient(cfg, "")
	handler := proxy.NewHandler(func(token string) source.NotificationSource {
		return client.WithToken(token)
	}, log)

	srv := &http.Server{
		Addr:              cfg.Proxy.Listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"listen":  cfg.Proxy.Listen,
			"backend": cfg.API.BaseURL,
		}).Info("proxy listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving proxy: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	log.Info("proxy shutting down")
	return srv.Shutdown(shutdownCtx)
}

func runStatus(cfg *model.AppConfig, log *logrus.Logger) error {
	vault, err := credential.OpenVault()
	if err != nil {
		return err
	}
	storedSession(cfg, vault, log)

	token, err := vault.SessionToken()
	if err != nil {
		return err
	}

	fmt.Printf("backend:  %s\n", cfg.API.BaseURL)
	fmt.Printf("channel:  %s\n", channel.SocketBase(cfg.API.BaseURL, cfg.API.WSURL))
	if token == "" {
		fmt.Println("session:  signed out")
	} else {
		fmt.Printf("session:  signed in as user %d\n", cfg.Session.UserID)
	}

	s, ok := openCache(cfg, log)
	if !ok || cfg.Session.UserID <= 0 {
		fmt.Println("cache:    none")
		return nil
	}
	defer s.Close()

	info, err := s.SnapshotInfo(context.Background(), cfg.Session.UserID)
	if err != nil {
		return err
	}
	if info == nil {
		fmt.Println("cache:    none")
		return nil
	}
	fmt.Printf("cache:    %d notifications (%d unread), saved %s\n",
		info.Count, info.Unread, info.SavedAt.Local().Format("02/01/2006 15:04"))
	return nil
}

func runLogout(cfg *model.AppConfig, log *logrus.Logger) error {
	vault, err := credential.OpenVault()
	if err != nil {
		return err
	}
	if err := vault.ForgetSession(); err != nil {
		return err
	}

	if s, ok := openCache(cfg, log); ok {
		defer s.Close()
		if cfg.Session.UserID > 0 {
			if err := s.ClearSnapshot(context.Background(), cfg.Session.UserID); err != nil {
				return err
			}
		}
	}

	log.WithField("user_id", cfg.Session.UserID).Info("signed out")
	fmt.Println("signed out")
	return nil
}
