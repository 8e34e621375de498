package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

type IntakeListCmd struct {
	Med   string `help:"Only intakes of this medication name."`
	Limit int    `help:"Maximum number of records." default:"10"`
}

func (c *IntakeListCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}

	limit := c.Limit
	if limit <= 0 {
		limit = constants.DefaultRecentLimit
	}
	var records []models.MedicationIntakeRecord
	if c.Med == "" {
		records, err = repos.Intakes.Recent(context.Background(), limit).Wait()
	} else {
		records, err = repos.Intakes.List(context.Background(), storage.IntakeFilter{
			MedicationName: c.Med,
			Limit:          limit,
		}).Wait()
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		ctx.println("No intake records found.")
		return nil
	}
	ctx.println(headerStyle.Render(fmt.Sprintf("%-4s %-16s %-24s %s", "ID", "TAKEN", "MEDICATION", "DOSE")))
	for _, r := range records {
		ctx.printf("%-4d %-16s %-24s %d\n", r.ID, formatMillis(r.IntakeTime), truncate(r.MedicationName, 24), r.DosageTaken)
	}
	return nil
}

// IntakeDeleteCmd removes a history entry. Medication stock is not
// restored.
type IntakeDeleteCmd struct {
	ID int64 `arg:"" help:"Intake record ID."`
}

func (c *IntakeDeleteCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	r, err := repos.Intakes.Get(bg, c.ID).Wait()
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(fmt.Sprintf("Delete the %s intake of %s?", formatMillis(r.IntakeTime), r.MedicationName))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	if _, err := repos.Intakes.Delete(bg, c.ID).Wait(); err != nil {
		return err
	}
	ctx.printf("Deleted intake record %d\n", r.ID)
	return nil
}
