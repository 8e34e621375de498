package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/repository"
	"github.com/julianstephens/pillbook/internal/storage"
)

type MedAddCmd struct {
	Name           string `arg:"" help:"Medication name."`
	Color          string `help:"Color (white, yellow, blue, ...)." default:"white"`
	Form           string `help:"Dosage form (pill, tablet, capsule, ...)." default:"pill"`
	Total          int    `help:"Quantity in a full pack." required:""`
	Dosage         int    `help:"Units taken per intake." default:"1"`
	Threshold      int    `help:"Remaining quantity at or below which stock is low." default:"0"`
	Unit           string `help:"Unit name." default:"pill"`
	Photo          string `help:"Path to a photo of the medication." type:"path"`
	AllowDuplicate bool   `help:"Allow a name already in use."`
}

func (c *MedAddCmd) Run(ctx *Context) error {
	color, err := models.ParseColor(c.Color)
	if err != nil {
		return err
	}
	form, err := models.ParseDosageForm(c.Form)
	if err != nil {
		return err
	}
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}

	m := models.NewMedication(ctx.clock(), c.Name, string(color), string(form), c.Total, c.Dosage, c.Threshold, c.Unit)
	m.PhotoPath = c.Photo
	created, err := repos.Medications.Create(context.Background(), m, repository.CreateOptions{AllowDuplicate: c.AllowDuplicate}).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Added medication: %s (ID: %d)\n", created.Name, created.ID)
	return nil
}

type MedListCmd struct {
	Search string `help:"Only names containing this text."`
	Color  string `help:"Only this color."`
	Form   string `help:"Only this dosage form."`
	Low    bool   `help:"Only medications that are low or out of stock."`
}

func (c *MedListCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}

	var meds []models.MedicationInfo
	if c.Low {
		meds, err = repos.Medications.LowStock(context.Background()).Wait()
	} else {
		meds, err = repos.Medications.List(context.Background(), storage.MedicationFilter{
			NameContains: c.Search,
			Color:        c.Color,
			DosageForm:   c.Form,
		}).Wait()
	}
	if err != nil {
		return err
	}

	if len(meds) == 0 {
		ctx.println("No medications found.")
		return nil
	}
	ctx.println(headerStyle.Render(fmt.Sprintf("%-4s %-24s %-14s %-10s %s", "ID", "NAME", "REMAINING", "FORM", "STATUS")))
	for _, m := range meds {
		remaining := fmt.Sprintf("%d/%d %s", m.RemainingQuantity, m.TotalQuantity, m.Unit)
		ctx.printf("%-4d %-24s %-14s %-10s %s\n", m.ID, truncate(m.Name, 24), remaining, m.DosageForm, stockBadge(m))
	}
	return nil
}

type MedShowCmd struct {
	ID int64 `arg:"" help:"Medication ID."`
}

func (c *MedShowCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	m, err := repos.Medications.Get(context.Background(), c.ID).Wait()
	if err != nil {
		return err
	}

	ctx.println(headerStyle.Render(m.Name))
	ctx.printf("  ID:         %d\n", m.ID)
	ctx.printf("  Color:      %s\n", m.Color)
	ctx.printf("  Form:       %s\n", m.DosageForm)
	ctx.printf("  Stock:      %d/%d %s (%d%%) %s\n", m.RemainingQuantity, m.TotalQuantity, m.Unit, m.RemainingPercentage(), stockBadge(m))
	ctx.printf("  Per intake: %d %s\n", m.DosagePerIntake, m.Unit)
	ctx.printf("  Low at:     %d %s\n", m.LowStockThreshold, m.Unit)
	if m.PhotoPath != "" {
		ctx.printf("  Photo:      %s\n", m.PhotoPath)
	}
	if m.NeedsRefill(constants.DefaultRefillPercent) {
		ctx.println("  " + warnStyle.Render("Time to refill."))
	}
	ctx.println(mutedStyle.Render(fmt.Sprintf("  updated %s", formatMillis(m.UpdatedAt))))
	return nil
}

// MedEditCmd changes only the flags that are given. Negative quantities
// mean unchanged.
type MedEditCmd struct {
	ID        int64  `arg:"" help:"Medication ID."`
	Name      string `help:"New name."`
	Color     string `help:"New color."`
	Form      string `help:"New dosage form."`
	Total     int    `help:"New pack quantity." default:"-1"`
	Remaining int    `help:"New remaining quantity." default:"-1"`
	Dosage    int    `help:"New units per intake." default:"-1"`
	Threshold int    `help:"New low-stock threshold." default:"-1"`
	Unit      string `help:"New unit name."`
	Photo     string `help:"New photo path." type:"path"`
	Refill    bool   `help:"Reset remaining to the pack quantity."`
}

func (c *MedEditCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	m, err := repos.Medications.Get(bg, c.ID).Wait()
	if err != nil {
		return err
	}

	if c.Name != "" {
		m.Name = c.Name
	}
	if c.Color != "" {
		color, err := models.ParseColor(c.Color)
		if err != nil {
			return err
		}
		m.Color = string(color)
	}
	if c.Form != "" {
		form, err := models.ParseDosageForm(c.Form)
		if err != nil {
			return err
		}
		m.DosageForm = string(form)
	}
	setIfGiven(&m.TotalQuantity, c.Total)
	setIfGiven(&m.RemainingQuantity, c.Remaining)
	setIfGiven(&m.DosagePerIntake, c.Dosage)
	setIfGiven(&m.LowStockThreshold, c.Threshold)
	if c.Unit != "" {
		m.Unit = c.Unit
	}
	if c.Photo != "" {
		m.PhotoPath = c.Photo
	}
	if c.Refill {
		m.RemainingQuantity = m.TotalQuantity
	}

	updated, err := repos.Medications.Update(bg, m).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Updated medication: %s (ID: %d)\n", updated.Name, updated.ID)
	return nil
}

func setIfGiven(dst *int, v int) {
	if v >= 0 {
		*dst = v
	}
}

type MedDeleteCmd struct {
	ID int64 `arg:"" help:"Medication ID."`
}

func (c *MedDeleteCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	m, err := repos.Medications.Get(bg, c.ID).Wait()
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(fmt.Sprintf("Delete %s? Intake history is kept.", m.Name))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	if _, err := repos.Medications.Delete(bg, c.ID).Wait(); err != nil {
		return err
	}
	ctx.printf("Deleted medication: %s (ID: %d)\n", m.Name, m.ID)
	return nil
}

type MedTakeCmd struct {
	ID int64 `arg:"" help:"Medication ID."`
}

func (c *MedTakeCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	out, err := repos.Medications.Consume(context.Background(), c.ID).Wait()
	if err != nil {
		return err
	}

	m := out.Medication
	ctx.printf("Took %d %s of %s at %s; %d left\n",
		out.Record.DosageTaken, m.Unit, m.Name, formatMillis(out.Record.IntakeTime), m.RemainingQuantity)
	if m.Status() != models.StockSufficient {
		ctx.println(stockBadge(m) + " " + mutedStyle.Render("consider refilling soon"))
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
