package storage

import (
	"testing"

	"github.com/julianstephens/pillbook/internal/models"
)

func TestMedicationFilterMatch(t *testing.T) {
	m := models.MedicationInfo{Name: " Vitamin D ", Color: "Yellow", DosageForm: "capsule"}

	tests := []struct {
		name   string
		filter MedicationFilter
		want   bool
	}{
		{"empty", MedicationFilter{}, true},
		{"contains", MedicationFilter{NameContains: "vitamin"}, true},
		{"exact trimmed", MedicationFilter{Name: "vitamin d"}, true},
		{"exact partial", MedicationFilter{Name: "vitamin"}, false},
		{"color", MedicationFilter{Color: "yellow"}, true},
		{"wrong form", MedicationFilter{DosageForm: "tablet"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(m); got != tt.want {
				t.Errorf("Match() = %t, want %t", got, tt.want)
			}
		})
	}
}

func TestIntakeFilterMatch(t *testing.T) {
	r := models.NewIntakeRecordAt("Aspirin", 500, 1)

	if !(IntakeFilter{}).Match(r) {
		t.Error("empty filter should match")
	}
	if (IntakeFilter{MedicationName: "aspirin"}).Match(r) {
		t.Error("medication name match is exact")
	}
	if !(IntakeFilter{From: 500, To: 500}).Match(r) {
		t.Error("range bounds are inclusive")
	}
	if (IntakeFilter{From: 501}).Match(r) || (IntakeFilter{To: 499}).Match(r) {
		t.Error("out of range matched")
	}
}

func TestDiaryFilterMatch(t *testing.T) {
	d := models.RestoreHealthDiary(1, 7, "Mild Headache", 1000, 1000)

	if !(DiaryFilter{UserID: 7, Keyword: "headache"}).Match(d) {
		t.Error("owner and keyword should match")
	}
	if (DiaryFilter{UserID: 8}).Match(d) {
		t.Error("other owner matched")
	}
	if (DiaryFilter{From: 1001}).Match(d) {
		t.Error("created before From matched")
	}
}
