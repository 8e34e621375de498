// Package validation holds the write-time rules shared by every repository
// caller. Each check returns nil or an *apperrors.Error of kind validation
// carrying one of the fixed messages.
package validation

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/julianstephens/pillbook/internal/constants"
	apperrors "github.com/julianstephens/pillbook/internal/errors"
	"github.com/julianstephens/pillbook/internal/models"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// required only rejects the zero value; "  " must fail too
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(err)
	}
	return v
}

// DiaryContent checks diary text: non-blank and at most 5000 characters.
func DiaryContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.Validation(apperrors.MsgContentEmpty)
	}
	if utf8.RuneCountInString(content) > constants.MaxDiaryContentLength {
		return apperrors.Validation(apperrors.MsgContentTooLong)
	}
	return nil
}

// medicationMessages maps struct fields to the message reported when they
// fail. Quantity fields all share one message.
var medicationMessages = map[string]string{
	"Name":              apperrors.MsgMedicationName,
	"Color":             apperrors.MsgMedicationColor,
	"DosageForm":        apperrors.MsgDosageForm,
	"TotalQuantity":     apperrors.MsgNegativeQuantity,
	"RemainingQuantity": apperrors.MsgNegativeQuantity,
	"DosagePerIntake":   apperrors.MsgNegativeQuantity,
	"LowStockThreshold": apperrors.MsgNegativeQuantity,
}

// Medication checks that name, color and dosage form are present and that
// no quantity is negative. The first failing field, in declaration order,
// decides the message.
func Medication(m models.MedicationInfo) error {
	return structErr(validate.Struct(m), medicationMessages)
}

var intakeMessages = map[string]string{
	"MedicationName": apperrors.MsgRecordNameEmpty,
}

// IntakeRecord checks that the record names a medication. Dosage and time
// are accepted as given.
func IntakeRecord(r models.MedicationIntakeRecord) error {
	return structErr(validate.Struct(r), intakeMessages)
}

var scheduleMessages = map[string]string{
	"MedicationID": apperrors.MsgScheduleMedication,
	"CycleType":    apperrors.MsgCycleType,
	"TimesOfDay":   apperrors.MsgReminderTimes,
}

// Schedule checks that a schedule names a medication, a known cycle and at
// least one valid time of day, plus whatever its cycle type needs: weekdays
// for weekly, a day of month for monthly and an interval for every-x-days.
func Schedule(s models.MedicationSchedule) error {
	if err := structErr(validate.Struct(s), scheduleMessages); err != nil {
		return err
	}
	if _, err := models.ParseTimesOfDay(s.TimesOfDay); err != nil {
		return apperrors.Validation(apperrors.MsgReminderTimes)
	}

	switch s.CycleType {
	case models.CycleWeekly:
		if models.WeekdayMask(s.Weekdays) == 0 {
			return apperrors.Validation(apperrors.MsgWeekdays)
		}
	case models.CycleMonthly:
		if s.DayOfMonth < 1 || s.DayOfMonth > 31 {
			return apperrors.Validation(apperrors.MsgDayOfMonth)
		}
	case models.CycleEveryXDays:
		if s.IntervalDays < 1 || s.IntervalDays > constants.MaxIntervalDays {
			return apperrors.Validation(apperrors.MsgIntervalDays)
		}
	}
	return nil
}

// DiaryOwner rejects diaries without a positive owner id.
func DiaryOwner(userID int64) error {
	if userID <= 0 {
		return apperrors.Validation(apperrors.MsgOwnerRequired)
	}
	return nil
}

// ID rejects ids that cannot refer to a persisted row.
func ID(id int64) error {
	if id <= 0 {
		return apperrors.Validation(apperrors.MsgInvalidID)
	}
	return nil
}

// Keyword rejects blank search terms.
func Keyword(keyword string) error {
	if strings.TrimSpace(keyword) == "" {
		return apperrors.Validation(apperrors.MsgKeywordEmpty)
	}
	return nil
}

// TimeRange rejects ranges whose start lies after their end.
func TimeRange(from, to int64) error {
	if from > to {
		return apperrors.Validation(apperrors.MsgInvalidTimeRange)
	}
	return nil
}

func structErr(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperrors.Validation(err.Error())
	}
	field := fieldErrs[0].StructField()
	// element errors name the field as "Field[i]"
	if i := strings.IndexByte(field, '['); i >= 0 {
		field = field[:i]
	}
	if msg, ok := messages[field]; ok {
		return apperrors.Validation(msg)
	}
	return apperrors.Validation(fieldErrs[0].Error())
}
