package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/keyring"
	"github.com/julianstephens/pillbook/internal/storage/postgres"
)

// KeyringSetCmd stores a PostgreSQL connection string in the OS keyring.
type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *Context) error {
	if !postgres.IsConnString(cmd.ConnectionString) && !strings.Contains(cmd.ConnectionString, "host=") {
		return errors.New("connection string must be a valid PostgreSQL connection string")
	}

	if err := postgres.ValidateConnString(cmd.ConnectionString); err != nil {
		if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
			return fmt.Errorf("invalid connection string: %w", err)
		}
		// the keyring is encrypted, so embedded credentials are allowed here
		ctx.println(warnStyle.Render("Warning: connection string contains embedded credentials."))
		ctx.println(mutedStyle.Render("  It is stored as-is in the OS keyring. Use ~/.pgpass to keep the password separate."))
	}

	if err := keyring.SetConnectionString(cmd.ConnectionString); err != nil {
		return err
	}
	ctx.println(okStyle.Render("Connection string stored in OS keyring"))
	ctx.printf("  Use it with --db=%s or PILLBOOK_DB=%s\n", KeyringDB, KeyringDB)
	return nil
}

type KeyringDeleteCmd struct{}

func (cmd *KeyringDeleteCmd) Run(ctx *Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return errors.New("no connection string found in keyring")
		}
		return err
	}
	ctx.println(okStyle.Render("Connection string deleted from OS keyring"))
	return nil
}

// KeyringStatusCmd reports keyring availability and which connection
// string --db=keyring would use, with its password masked.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *Context) error {
	if !keyring.IsAvailable() {
		ctx.println(errStyle.Render("OS keyring is not available on this system"))
		return keyring.ErrKeyringUnavailable
	}
	ctx.println(okStyle.Render("OS keyring is available"))

	connStr, source, err := keyring.ResolveConnectionString()
	switch {
	case err == nil:
		ctx.printf("Connection string (from %s): %s\n", source, maskPassword(connStr))
		if source == keyring.SourceEnv {
			ctx.println(mutedStyle.Render(fmt.Sprintf("  %s overrides the keyring entry", constants.EnvConnectionString)))
		}
	case errors.Is(err, keyring.ErrNotFound):
		ctx.println("No connection string stored in keyring")
	default:
		return err
	}
	return nil
}

// maskPassword hides the password in URL and key=value connection strings.
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			rest := connStr[idx+3:]
			if at := strings.LastIndex(rest, "@"); at != -1 {
				userInfo := rest[:at]
				if colon := strings.Index(userInfo, ":"); colon != -1 {
					return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}
	return connStr
}
