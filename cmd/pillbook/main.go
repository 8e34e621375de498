package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/pillbook/internal/cli"
	"github.com/julianstephens/pillbook/internal/constants"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/logger"
)

func main() {
	var c cli.CLI
	kctx := kong.Parse(&c,
		kong.Name(constants.AppName),
		kong.Description("Medication stock, intake history and health diary"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		cli.Vars(),
	)

	if err := logger.Init(logger.Config{Debug: c.Debug, ConfigDir: cli.ConfigDir(c.DB)}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logging: %v\n", err)
	}

	appCtx := c.NewContext()
	err := kctx.Run(appCtx)
	if closeErr := appCtx.Close(); closeErr != nil {
		logger.Warn("failed to close storage", "error", closeErr)
		if err == nil {
			err = closeErr
		}
	}
	apperrors.Fatal(err)
}
