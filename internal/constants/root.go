package constants

import "time"

const (
	AppName            = "pillbook"
	DefaultKeyringUser = "database-connection"
	DefaultConfigPath  = "~/.config/pillbook/pillbook.db"
	Version            = "v0.1.0"

	// EnvConnectionString overrides the keyring for PostgreSQL connections.
	EnvConnectionString = "PILLBOOK_DB_CONNECTION"

	// DateTimeFormat is used for diary timestamps shown to the user
	DateTimeFormat = "2006-01-02 15:04"

	// ShortDateFormat is used in compact diary listings (MM-DD)
	ShortDateFormat = "01-02"

	// DateFormat is the calendar date format accepted on the command line (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimeFormat is the wall-clock format of reminder times (HH:MM)
	TimeFormat = "15:04"

	// Diary constants
	MaxDiaryContentLength = 5000
	DefaultPreviewLength  = 100
	PreviewEllipsis       = "..."

	// Medication constants
	DefaultUnit            = "pill"
	DefaultDosagePerIntake = 1
	DefaultRefillPercent   = 20

	// Schedule constants
	MaxIntervalDays = 365

	// Repository constants
	DefaultWorkers     = 4
	DefaultRecentLimit = 10

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "pillbook-"
	BackupFileSuffix = ".db"

	// Lockfile constants
	LockfileSuffix = ".lock"

	// SQLite connection tuning
	SQLiteBusyTimeout = 5 * time.Second
)
