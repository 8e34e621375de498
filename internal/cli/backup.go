package cli

import (
	"fmt"

	"github.com/julianstephens/pillbook/internal/backup"
	"github.com/julianstephens/pillbook/internal/constants"
)

type BackupCreateCmd struct{}

func (c *BackupCreateCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	if err := ctx.acquireLock(); err != nil {
		return err
	}
	path, err := mgr.Create()
	if err != nil {
		return err
	}
	ctx.printf("Backup created: %s\n", path)
	return nil
}

type BackupListCmd struct{}

func (c *BackupListCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}
	backups, err := mgr.List()
	if err != nil {
		return err
	}
	if len(backups) == 0 {
		ctx.printf("No backups in %s\n", mgr.Dir())
		return nil
	}

	ctx.println(headerStyle.Render(fmt.Sprintf("%-16s %10s  %s", "CREATED", "SIZE", "PATH")))
	for _, b := range backups {
		ctx.printf("%-16s %10s  %s\n", b.Timestamp.Local().Format(constants.DateTimeFormat), humanSize(b.Size), b.Path)
	}
	return nil
}

type BackupRestoreCmd struct {
	File string `arg:"" help:"Backup file to restore." type:"existingfile"`
}

func (c *BackupRestoreCmd) Run(ctx *Context) error {
	mgr, err := ctx.backups()
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(fmt.Sprintf("Replace %s with %s? The current database is backed up first.", ctx.DBPath, c.File))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Restore cancelled.")
		return nil
	}

	// nothing may hold the database open while it is replaced
	if err := ctx.Close(); err != nil {
		return err
	}
	if err := ctx.acquireLock(); err != nil {
		return err
	}
	saved, err := mgr.Restore(c.File)
	if err != nil {
		return err
	}
	if saved != "" {
		ctx.printf("Previous database saved to: %s\n", saved)
	}
	ctx.printf("Restored database from: %s\n", c.File)
	return nil
}

// backups returns the backup manager for a SQLite database.
func (c *Context) backups() (*backup.Manager, error) {
	if _, err := c.Provider(); err != nil {
		return nil, err
	}
	if c.DBPath == "" {
		return nil, fmt.Errorf("backups are only supported for SQLite databases; use pg_dump for PostgreSQL")
	}
	return backup.NewManager(c.DBPath, backup.WithClock(c.Clock)), nil
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
