package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rpggio/calldesk/internal/config"
	"github.com/rpggio/calldesk/internal/device/adb"
	"github.com/rpggio/calldesk/internal/domain/call"
	"github.com/rpggio/calldesk/internal/domain/contact"
	"github.com/rpggio/calldesk/internal/logging"
	"github.com/rpggio/calldesk/internal/sqlite"
	"go.uber.org/zap"
)

// app holds the wired services shared by every subcommand.
type app struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *sqlite.DB
	contacts *contact.Service
	tracker  *call.Tracker
	device   *call.Inspector

	closeLog func() error
}

// newApp loads config, opens the database and wires the services. Logs go
// to console, which stdio mode points at stderr to keep stdout clean.
func newApp(opts *rootOptions, console io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}

	logger, closeLog, err := logging.New(logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		MaxAge:  cfg.Log.MaxAge,
		Console: console,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}

	a := &app{cfg: cfg, logger: logger, closeLog: closeLog}

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		a.close()
		return nil, fmt.Errorf("prepare database path: %w", err)
	}
	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		a.close()
		return nil, err
	}
	a.db = db
	if err := db.RunMigrations(); err != nil {
		a.close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	a.contacts = contact.NewService(sqlite.NewContactRepository(db), logger.Named("contacts"))
	a.contacts.SetImportTimeout(cfg.Contacts.ImportTimeout)

	loc, err := call.LoadLocation(cfg.Call.Timezone)
	if err != nil {
		a.close()
		return nil, err
	}
	phone := adb.New(adb.ExecRunner{Path: cfg.Call.ADBPath}, cfg.Call.ADBSerial, logger.Named("adb"))
	a.tracker = call.NewTracker(call.NewSession(), phone, phone, phone, a.contacts, call.Options{
		ProbeTimeout:   cfg.Call.ProbeTimeout,
		CommandTimeout: cfg.Call.CommandTimeout,
		VerifyHangUp:   cfg.Call.VerifyHangUp,
		HangUpBackoff:  cfg.Call.HangUpBackoff,
		Location:       loc,
	}, logger.Named("call"))
	a.device = call.NewInspector(phone, cfg.Call.ProbeTimeout)

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
	if a.closeLog != nil {
		_ = a.closeLog()
	}
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
