package models

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-logfmt/logfmt"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
)

// MedicationIntakeRecord logs one consumption event. MedicationName is a
// snapshot taken at intake time, not a reference, so renaming or deleting
// the medication later leaves history intact.
//
// DosageTaken is not validated; zero and negative values are stored as given.
type MedicationIntakeRecord struct {
	ID             int64  `json:"id"`
	MedicationName string `json:"medication_name" validate:"notblank"`
	IntakeTime     int64  `json:"intake_time"` // epoch ms
	DosageTaken    int    `json:"dosage_taken"`
}

// NewIntakeRecord returns an empty record taken now with a dosage of one.
func NewIntakeRecord(clk clock.Clock) MedicationIntakeRecord {
	return MedicationIntakeRecord{
		IntakeTime:  clock.Or(clk).NowMillis(),
		DosageTaken: constants.DefaultDosagePerIntake,
	}
}

// NewIntakeRecordAt returns a record for an explicit intake time.
func NewIntakeRecordAt(medicationName string, intakeTime int64, dosageTaken int) MedicationIntakeRecord {
	return MedicationIntakeRecord{
		MedicationName: medicationName,
		IntakeTime:     intakeTime,
		DosageTaken:    dosageTaken,
	}
}

// NewIntakeRecordNow returns a record taken now.
func NewIntakeRecordNow(clk clock.Clock, medicationName string, dosageTaken int) MedicationIntakeRecord {
	return NewIntakeRecordAt(medicationName, clock.Or(clk).NowMillis(), dosageTaken)
}

// String renders the record as a single logfmt line:
//
//	id=3 medication_name="Vitamin D" intake_time=1700000000000 dosage_taken=1
//
// ParseIntakeRecord reverses it.
func (r MedicationIntakeRecord) String() string {
	b, err := logfmt.MarshalKeyvals(
		"id", r.ID,
		"medication_name", r.MedicationName,
		"intake_time", r.IntakeTime,
		"dosage_taken", r.DosageTaken,
	)
	if err != nil {
		return fmt.Sprintf("id=%d medication_name=%q intake_time=%d dosage_taken=%d",
			r.ID, r.MedicationName, r.IntakeTime, r.DosageTaken)
	}
	return string(b)
}

// ParseIntakeRecord parses the output of MedicationIntakeRecord.String.
// Unknown keys are ignored.
func ParseIntakeRecord(s string) (MedicationIntakeRecord, error) {
	var r MedicationIntakeRecord
	dec := logfmt.NewDecoder(strings.NewReader(s))
	if !dec.ScanRecord() {
		if err := dec.Err(); err != nil {
			return r, fmt.Errorf("parsing intake record: %w", err)
		}
		return r, fmt.Errorf("parsing intake record: empty input")
	}

	for dec.ScanKeyval() {
		val := string(dec.Value())
		var err error
		switch string(dec.Key()) {
		case "id":
			r.ID, err = strconv.ParseInt(val, 10, 64)
		case "medication_name":
			r.MedicationName = val
		case "intake_time":
			r.IntakeTime, err = strconv.ParseInt(val, 10, 64)
		case "dosage_taken":
			r.DosageTaken, err = strconv.Atoi(val)
		}
		if err != nil {
			return MedicationIntakeRecord{}, fmt.Errorf("parsing %s: %w", dec.Key(), err)
		}
	}
	if err := dec.Err(); err != nil {
		return MedicationIntakeRecord{}, fmt.Errorf("parsing intake record: %w", err)
	}
	return r, nil
}
