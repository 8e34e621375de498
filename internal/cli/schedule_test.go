package cli

import (
	"context"
	"strings"
	"testing"
	"time"

	apperrors "github.com/julianstephens/pillbook/internal/errors"
)

func TestScheduleAddAndList(t *testing.T) {
	ctx, out := newTestContext(t, true)
	addAspirin(t, ctx)

	tests := []struct {
		name string
		cmd  ScheduleAddCmd
		want string
	}{
		{"daily", ScheduleAddCmd{MedID: 1, Cycle: "daily", At: []string{"20:00", "8:00"}}, "Daily at 08:00, 20:00"},
		{"weekly", ScheduleAddCmd{MedID: 1, Cycle: "weekly", At: []string{"09:00"}, Days: []string{"fri", "Monday"}}, "Weekly on Mon, Fri at 09:00"},
		{"monthly", ScheduleAddCmd{MedID: 1, Cycle: "monthly", At: []string{"07:30"}, Day: 31}, "Monthly on day 31 at 07:30"},
		{"interval", ScheduleAddCmd{MedID: 1, Cycle: "every-x-days", At: []string{"08:00"}, Every: 3, Start: "2030-01-01"}, "Every 3 days at 08:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			run(t, ctx, &tt.cmd)
			if !strings.Contains(out.String(), tt.want) || !strings.Contains(out.String(), "Next reminder:") {
				t.Errorf("output = %q", out.String())
			}
		})
	}

	repos, _ := ctx.Repos()
	s, err := repos.Schedules.Get(context.Background(), 4).Wait()
	if err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2030, 1, 1, 8, 0, 0, 0, time.Local).UnixMilli(); s.NextReminderAt != want {
		t.Errorf("next reminder = %d, want the start date at 08:00", s.NextReminderAt)
	}

	out.Reset()
	run(t, ctx, &ScheduleListCmd{Med: 1})
	for _, want := range []string{"Aspirin", "Daily at 08:00, 20:00", "Every 3 days", "2030-01-01 08:00"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("list output missing %q:\n%s", want, out.String())
		}
	}

	out.Reset()
	run(t, ctx, &ScheduleListCmd{Med: 2})
	if !strings.Contains(out.String(), "No schedules found.") {
		t.Errorf("output = %q", out.String())
	}
}

func TestScheduleAddRejects(t *testing.T) {
	ctx, _ := newTestContext(t, true)
	addAspirin(t, ctx)

	tests := []struct {
		name string
		cmd  ScheduleAddCmd
	}{
		{"cycle", ScheduleAddCmd{MedID: 1, Cycle: "hourly", At: []string{"08:00"}}},
		{"weekday", ScheduleAddCmd{MedID: 1, Cycle: "weekly", At: []string{"08:00"}, Days: []string{"someday"}}},
		{"start", ScheduleAddCmd{MedID: 1, Cycle: "daily", At: []string{"08:00"}, Start: "01/02/2030"}},
		{"time", ScheduleAddCmd{MedID: 1, Cycle: "daily", At: []string{"noon"}}},
		{"medication", ScheduleAddCmd{MedID: 7, Cycle: "daily", At: []string{"08:00"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cmd.Run(ctx); err == nil {
				t.Error("Run() succeeded")
			}
		})
	}
}

func TestScheduleEnableDisableDelete(t *testing.T) {
	ctx, out := newTestContext(t, true)
	addAspirin(t, ctx)
	run(t, ctx, &ScheduleAddCmd{MedID: 1, Cycle: "daily", At: []string{"08:00"}})

	out.Reset()
	run(t, ctx, &ScheduleDisableCmd{ID: 1})
	run(t, ctx, &ScheduleListCmd{})
	if !strings.Contains(out.String(), "Disabled schedule 1") || !strings.Contains(out.String(), "off") {
		t.Errorf("output = %q", out.String())
	}

	out.Reset()
	run(t, ctx, &ScheduleEnableCmd{ID: 1})
	if !strings.Contains(out.String(), "Enabled schedule 1, next reminder") {
		t.Errorf("output = %q", out.String())
	}

	declined, _ := newTestContext(t, false)
	if err := (&ScheduleDeleteCmd{ID: 1}).Run(declined); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("delete on an empty store = %v", err)
	}

	out.Reset()
	run(t, ctx, &ScheduleDeleteCmd{ID: 1})
	if !strings.Contains(out.String(), "Deleted schedule 1") {
		t.Errorf("output = %q", out.String())
	}
	if err := (&ScheduleDisableCmd{ID: 1}).Run(ctx); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Errorf("disable after delete = %v", err)
	}
}
