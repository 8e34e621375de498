package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/pillbook/internal/storage"
)

type InitCmd struct{}

func (c *InitCmd) Run(ctx *Context) error {
	store, err := ctx.Provider()
	if err != nil {
		return err
	}
	if err := ctx.acquireLock(); err != nil {
		return err
	}
	if err := store.Init(); err != nil {
		return err
	}
	ctx.open = true
	ctx.printf("Initialized pillbook storage at: %s\n", store.Describe())
	return nil
}

type StatusCmd struct{}

func (c *StatusCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()

	meds, err := repos.Medications.Count(bg, storage.MedicationFilter{}).Wait()
	if err != nil {
		return err
	}
	low, err := repos.Medications.LowStock(bg).Wait()
	if err != nil {
		return err
	}
	intakes, err := repos.Intakes.Count(bg, storage.IntakeFilter{}).Wait()
	if err != nil {
		return err
	}
	diaries, err := repos.Diaries.CountForOwner(bg, ctx.Owner).Wait()
	if err != nil {
		return err
	}

	ctx.println(headerStyle.Render("Repositories"))
	for _, line := range repos.Status() {
		ctx.println("  " + line)
	}
	ctx.println()
	ctx.println(headerStyle.Render("Records"))
	ctx.printf("  medications: %d (%d need attention)\n", meds, len(low))
	ctx.printf("  intake records: %d\n", intakes)
	ctx.printf("  diaries for owner %d: %d\n", ctx.Owner, diaries)
	if len(low) > 0 {
		ctx.println()
		for _, m := range low {
			ctx.println(fmt.Sprintf("  %s %s (%d %s left)", stockBadge(m), m.Name, m.RemainingQuantity, m.Unit))
		}
	}
	return nil
}
