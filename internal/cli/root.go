package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/keyring"
	"github.com/julianstephens/pillbook/internal/lockfile"
	"github.com/julianstephens/pillbook/internal/logger"
	"github.com/julianstephens/pillbook/internal/repository"
	"github.com/julianstephens/pillbook/internal/storage"
	"github.com/julianstephens/pillbook/internal/storage/postgres"
	"github.com/julianstephens/pillbook/internal/storage/sqlite"
)

// KeyringDB selects the PostgreSQL connection string stored in the OS
// keyring (or the environment) as the database.
const KeyringDB = "keyring"

// CLI is the command tree parsed by kong.
type CLI struct {
	Version kong.VersionFlag `help:"Show version and exit."`
	DB      string           `name:"db" help:"SQLite file path, PostgreSQL URL without a password, or 'keyring' to use the stored connection string." env:"PILLBOOK_DB" default:"${default_db}"`
	Debug   bool             `help:"Write debug logs to stderr." env:"PILLBOOK_DEBUG"`
	Workers int              `help:"Concurrent store operations per repository." env:"PILLBOOK_WORKERS" default:"4"`
	Owner   int64            `help:"Diary owner id." env:"PILLBOOK_OWNER" default:"1"`
	Yes     bool             `short:"y" help:"Answer yes to confirmation prompts."`

	Init   InitCmd   `cmd:"" help:"Initialize pillbook storage."`
	Status StatusCmd `cmd:"" help:"Show storage and repository status."`
	Med    struct {
		Add    MedAddCmd    `cmd:"" help:"Register a medication."`
		List   MedListCmd   `cmd:"" help:"List medications." default:"1"`
		Show   MedShowCmd   `cmd:"" help:"Show one medication."`
		Edit   MedEditCmd   `cmd:"" help:"Edit a medication."`
		Delete MedDeleteCmd `cmd:"" help:"Delete a medication."`
		Take   MedTakeCmd   `cmd:"" help:"Take one dose and record it."`
	} `cmd:"" help:"Manage medications."`
	Intake struct {
		List   IntakeListCmd   `cmd:"" help:"List intake history." default:"1"`
		Delete IntakeDeleteCmd `cmd:"" help:"Delete an intake record."`
	} `cmd:"" help:"Review intake history."`
	Schedule struct {
		Add     ScheduleAddCmd     `cmd:"" help:"Add a reminder schedule to a medication."`
		List    ScheduleListCmd    `cmd:"" help:"List reminder schedules." default:"1"`
		Enable  ScheduleEnableCmd  `cmd:"" help:"Turn a schedule's reminders on."`
		Disable ScheduleDisableCmd `cmd:"" help:"Turn a schedule's reminders off."`
		Delete  ScheduleDeleteCmd  `cmd:"" help:"Delete a schedule."`
	} `cmd:"" help:"Manage reminder schedules."`
	Diary struct {
		Add    DiaryAddCmd    `cmd:"" help:"Write a diary entry."`
		List   DiaryListCmd   `cmd:"" help:"List diary entries." default:"1"`
		Show   DiaryShowCmd   `cmd:"" help:"Show one diary entry."`
		Edit   DiaryEditCmd   `cmd:"" help:"Edit a diary entry."`
		Delete DiaryDeleteCmd `cmd:"" help:"Delete a diary entry."`
		Search DiarySearchCmd `cmd:"" help:"Search diary entries."`
	} `cmd:"" help:"Keep a health diary."`
	Backup struct {
		Create  BackupCreateCmd  `cmd:"" help:"Create a backup." default:"1"`
		List    BackupListCmd    `cmd:"" help:"List backups."`
		Restore BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage SQLite backups."`
	Keyring struct {
		Set    KeyringSetCmd    `cmd:"" help:"Store a PostgreSQL connection string."`
		Delete KeyringDeleteCmd `cmd:"" help:"Remove the stored connection string."`
		Status KeyringStatusCmd `cmd:"" help:"Check keyring availability."`
	} `cmd:"" help:"Manage the OS keyring entry."`
}

// Vars are the kong interpolation variables CLI relies on.
func Vars() kong.Vars {
	return kong.Vars{
		"version":    constants.Version,
		"default_db": constants.DefaultConfigPath,
	}
}

// NewContext builds the command context from parsed flags. Nothing is
// opened until a command asks for it.
func (c *CLI) NewContext() *Context {
	return &Context{
		DB:      c.DB,
		Owner:   c.Owner,
		Workers: c.Workers,
		Yes:     c.Yes,
	}
}

// Context is handed to every command. Store and repositories are opened on
// first use and released by Close.
type Context struct {
	DB      string
	Owner   int64
	Workers int
	Yes     bool

	// Out receives command output; stdout when nil.
	Out io.Writer
	// Clock stamps new records; the system clock when nil.
	Clock clock.Clock
	// Confirm asks a yes/no question; a huh prompt when nil.
	Confirm func(title string) (bool, error)
	// Prompt asks for multi-line text; a huh prompt when nil.
	Prompt func(title string) (string, error)

	// Store is resolved from DB when nil.
	Store storage.Provider
	// DBPath is the SQLite file behind Store, empty for PostgreSQL.
	DBPath string

	repos *repository.Repositories
	lock  *lockfile.Lock
	open  bool
}

// Provider returns the configured store without opening it.
func (c *Context) Provider() (storage.Provider, error) {
	if c.Store != nil {
		return c.Store, nil
	}
	store, path, err := OpenProvider(c.DB)
	if err != nil {
		return nil, err
	}
	c.Store, c.DBPath = store, path
	return store, nil
}

// Repos loads the store, taking the database lock for SQLite, and returns
// the repositories over it.
func (c *Context) Repos() (*repository.Repositories, error) {
	if c.repos != nil {
		return c.repos, nil
	}
	store, err := c.Provider()
	if err != nil {
		return nil, err
	}
	if err := c.acquireLock(); err != nil {
		return nil, err
	}
	if err := store.Load(); err != nil {
		return nil, err
	}
	c.open = true
	c.repos = repository.New(store,
		repository.WithClock(c.Clock),
		repository.WithWorkers(c.Workers),
	)
	logger.Debug("repositories ready", "store", store.Describe(), "workers", c.Workers)
	return c.repos, nil
}

func (c *Context) acquireLock() error {
	if c.DBPath == "" || c.lock != nil {
		return nil
	}
	lock, err := lockfile.Acquire(lockfile.PathFor(c.DBPath))
	if err != nil {
		return err
	}
	c.lock = lock
	return nil
}

// Close drains the repositories, closes the store and releases the lock.
// Safe to call more than once.
func (c *Context) Close() error {
	var errs []error
	if c.repos != nil {
		c.repos.Close()
		c.repos = nil
	}
	if c.open && c.Store != nil {
		errs = append(errs, c.Store.Close())
		c.open = false
	}
	errs = append(errs, c.lock.Release())
	c.lock = nil
	return errors.Join(errs...)
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...interface{}) {
	fmt.Fprintln(c.out(), args...)
}

func (c *Context) clock() clock.Clock {
	return clock.Or(c.Clock)
}

// confirm asks title unless --yes was given.
func (c *Context) confirm(title string) (bool, error) {
	if c.Yes {
		return true, nil
	}
	if c.Confirm != nil {
		return c.Confirm(title)
	}
	return confirmPrompt(title)
}

func (c *Context) prompt(title string) (string, error) {
	if c.Prompt != nil {
		return c.Prompt(title)
	}
	return textPrompt(title)
}

// OpenProvider picks the store for db: the keyring entry, a PostgreSQL
// connection string, or a SQLite file path. It returns the SQLite path when
// one is used.
func OpenProvider(db string) (storage.Provider, string, error) {
	switch {
	case db == KeyringDB:
		connStr, source, err := keyring.ResolveConnectionString()
		if err != nil {
			return nil, "", fmt.Errorf("no PostgreSQL connection string available, run '%s keyring set' or set %s: %w",
				constants.AppName, constants.EnvConnectionString, err)
		}
		logger.Debug("using stored connection string", "source", source)
		return postgres.New(connStr, postgres.WithTrustedCredentials()), "", nil
	case postgres.IsConnString(db) || strings.Contains(db, "host="):
		if err := postgres.ValidateConnString(db); err != nil {
			if errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return nil, "", fmt.Errorf("%w; store it with '%s keyring set' and use --db=%s, or use ~/.pgpass",
					err, constants.AppName, KeyringDB)
			}
			return nil, "", err
		}
		return postgres.New(db), "", nil
	default:
		path, err := expandHome(db)
		if err != nil {
			return nil, "", err
		}
		return sqlite.NewStore(path), path, nil
	}
}

// ConfigDir is where logs live: next to the SQLite file, or the default
// config directory for PostgreSQL.
func ConfigDir(db string) string {
	path := db
	if db == KeyringDB || postgres.IsConnString(db) || strings.Contains(db, "host=") {
		path = constants.DefaultConfigPath
	}
	if expanded, err := expandHome(path); err == nil {
		path = expanded
	}
	return filepath.Dir(path)
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
