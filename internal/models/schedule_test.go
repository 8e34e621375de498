package models

import (
	"slices"
	"testing"
	"time"
)

func TestParseCycleType(t *testing.T) {
	tests := []struct {
		in      string
		want    CycleType
		wantErr bool
	}{
		{"daily", CycleDaily, false},
		{" Weekly ", CycleWeekly, false},
		{"every-x-days", CycleEveryXDays, false},
		{"every_x_days", CycleEveryXDays, false},
		{"yearly", "", true},
	}
	for _, tt := range tests {
		got, err := ParseCycleType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseCycleType(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestNormalizeTimesOfDay(t *testing.T) {
	tests := []struct {
		name    string
		in      []string
		want    []string
		wantErr bool
	}{
		{"sorted and padded", []string{"20:15", "8:00", "12:30"}, []string{"08:00", "12:30", "20:15"}, false},
		{"duplicates dropped", []string{"08:00", " 08:00", "8:00"}, []string{"08:00"}, false},
		{"midnight", []string{"00:00"}, []string{"00:00"}, false},
		{"hour out of range", []string{"24:00"}, nil, true},
		{"minute out of range", []string{"08:60"}, nil, true},
		{"not a time", []string{"morning"}, nil, true},
		{"empty", nil, []string{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTimesOfDay(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeTimesOfDay() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !slices.Equal(got, tt.want) {
				t.Errorf("NormalizeTimesOfDay() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeekdayMask(t *testing.T) {
	tests := []struct {
		days []time.Weekday
		mask int
	}{
		{[]time.Weekday{time.Monday}, 1 << 6},
		{[]time.Weekday{time.Sunday}, 1},
		{[]time.Weekday{time.Monday, time.Wednesday, time.Friday}, 84},
		{[]time.Weekday{time.Saturday, time.Sunday}, 3},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := WeekdayMask(tt.days); got != tt.mask {
			t.Errorf("WeekdayMask(%v) = %d, want %d", tt.days, got, tt.mask)
		}
		if got := WeekdaysFromMask(tt.mask); !slices.Equal(got, SortWeekdays(tt.days)) {
			t.Errorf("WeekdaysFromMask(%d) = %v, want %v", tt.mask, got, tt.days)
		}
	}
}

func TestParseWeekday(t *testing.T) {
	for in, want := range map[string]time.Weekday{"mon": time.Monday, "Sunday": time.Sunday, "THU": time.Thursday} {
		if got, err := ParseWeekday(in); err != nil || got != want {
			t.Errorf("ParseWeekday(%q) = %v, %v", in, got, err)
		}
	}
	for _, in := range []string{"", "mo", "funday"} {
		if _, err := ParseWeekday(in); err == nil {
			t.Errorf("ParseWeekday(%q) accepted", in)
		}
	}
}

func TestScheduleDescribe(t *testing.T) {
	tests := []struct {
		s    MedicationSchedule
		want string
	}{
		{NewMedicationSchedule(1, CycleDaily, "08:00", "20:00"), "Daily at 08:00, 20:00"},
		{MedicationSchedule{CycleType: CycleWeekly, Weekdays: []time.Weekday{time.Sunday, time.Monday, time.Monday}, TimesOfDay: []string{"09:00"}}, "Weekly on Mon, Sun at 09:00"},
		{MedicationSchedule{CycleType: CycleMonthly, DayOfMonth: 31, TimesOfDay: []string{"07:30"}}, "Monthly on day 31 at 07:30"},
		{MedicationSchedule{CycleType: CycleEveryXDays, IntervalDays: 3, TimesOfDay: []string{"08:00"}}, "Every 3 days at 08:00"},
		{MedicationSchedule{CycleType: CycleEveryXDays, IntervalDays: 1, TimesOfDay: []string{"08:00"}}, "Daily at 08:00"},
	}
	for _, tt := range tests {
		if got := tt.s.Describe(); got != tt.want {
			t.Errorf("Describe() = %q, want %q", got, tt.want)
		}
	}
}

func TestScheduleCloneSharesNothing(t *testing.T) {
	s := MedicationSchedule{TimesOfDay: []string{"08:00"}, Weekdays: []time.Weekday{time.Monday}}
	c := s.Clone()
	c.TimesOfDay[0] = "09:00"
	c.Weekdays[0] = time.Friday
	if s.TimesOfDay[0] != "08:00" || s.Weekdays[0] != time.Monday {
		t.Errorf("clone aliases the original: %+v", s)
	}
}
