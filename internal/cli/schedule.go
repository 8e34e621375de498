package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/pillbook/internal/models"
	"github.com/julianstephens/pillbook/internal/storage"
)

type ScheduleAddCmd struct {
	MedID int64    `arg:"" name:"med-id" help:"Medication ID."`
	Cycle string   `help:"daily, weekly, monthly or every-x-days." default:"daily"`
	At    []string `help:"Reminder times as HH:MM, comma separated." required:""`
	Days  []string `help:"Weekdays for weekly schedules, comma separated."`
	Day   int      `help:"Day of month for monthly schedules; later days fall on the month's last day."`
	Every int      `help:"Interval in days for every-x-days schedules."`
	Start string   `help:"First day reminders may fire (YYYY-MM-DD). Defaults to today."`
}

func (c *ScheduleAddCmd) Run(ctx *Context) error {
	cycle, err := models.ParseCycleType(c.Cycle)
	if err != nil {
		return err
	}
	s := models.NewMedicationSchedule(c.MedID, cycle, c.At...)
	for _, d := range c.Days {
		wd, err := models.ParseWeekday(d)
		if err != nil {
			return err
		}
		s.Weekdays = append(s.Weekdays, wd)
	}
	s.DayOfMonth = c.Day
	s.IntervalDays = c.Every
	if s.StartDate, err = parseDay(c.Start, false); err != nil {
		return err
	}

	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	created, err := repos.Schedules.Create(context.Background(), s).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Added schedule %d: %s\n", created.ID, created.Describe())
	if created.NextReminderAt != 0 {
		ctx.printf("Next reminder: %s\n", formatMillis(created.NextReminderAt))
	}
	return nil
}

type ScheduleListCmd struct {
	Med int64 `help:"Only schedules of this medication ID."`
	Due bool  `help:"Only schedules with a reminder due within the next day."`
}

func (c *ScheduleListCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()

	f := storage.ScheduleFilter{MedicationID: c.Med}
	if c.Due {
		f.DueBy = ctx.clock().NowMillis() + (24 * time.Hour).Milliseconds()
	}
	schedules, err := repos.Schedules.List(bg, f).Wait()
	if err != nil {
		return err
	}
	if len(schedules) == 0 {
		ctx.println("No schedules found.")
		return nil
	}

	meds, err := repos.Medications.List(bg, storage.MedicationFilter{}).Wait()
	if err != nil {
		return err
	}
	names := make(map[int64]string, len(meds))
	for _, m := range meds {
		names[m.ID] = m.Name
	}

	ctx.println(headerStyle.Render(fmt.Sprintf("%-4s %-20s %-36s %s", "ID", "MEDICATION", "SCHEDULE", "NEXT")))
	for _, s := range schedules {
		next := "off"
		if s.Enabled {
			next = "-"
			if s.NextReminderAt != 0 {
				next = formatMillis(s.NextReminderAt)
			}
		}
		ctx.printf("%-4d %-20s %-36s %s\n", s.ID, truncate(names[s.MedicationID], 20), truncate(s.Describe(), 36), next)
	}
	return nil
}

type ScheduleEnableCmd struct {
	ID int64 `arg:"" help:"Schedule ID."`
}

func (c *ScheduleEnableCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	s, err := repos.Schedules.Enable(context.Background(), c.ID).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Enabled schedule %d, next reminder %s\n", s.ID, formatMillis(s.NextReminderAt))
	return nil
}

type ScheduleDisableCmd struct {
	ID int64 `arg:"" help:"Schedule ID."`
}

func (c *ScheduleDisableCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	s, err := repos.Schedules.Disable(context.Background(), c.ID).Wait()
	if err != nil {
		return err
	}
	ctx.printf("Disabled schedule %d\n", s.ID)
	return nil
}

type ScheduleDeleteCmd struct {
	ID int64 `arg:"" help:"Schedule ID."`
}

func (c *ScheduleDeleteCmd) Run(ctx *Context) error {
	repos, err := ctx.Repos()
	if err != nil {
		return err
	}
	bg := context.Background()
	s, err := repos.Schedules.Get(bg, c.ID).Wait()
	if err != nil {
		return err
	}

	ok, err := ctx.confirm(fmt.Sprintf("Delete schedule %d (%s)?", s.ID, s.Describe()))
	if err != nil {
		return err
	}
	if !ok {
		ctx.println("Delete cancelled.")
		return nil
	}
	if _, err := repos.Schedules.Delete(bg, c.ID).Wait(); err != nil {
		return err
	}
	ctx.printf("Deleted schedule %d\n", s.ID)
	return nil
}
