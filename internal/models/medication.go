package models

import (
	"fmt"
	"math"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
)

// StockStatus is derived from remaining quantity and the low-stock threshold.
type StockStatus string

const (
	StockSufficient StockStatus = "sufficient"
	StockLow        StockStatus = "low_stock"
	StockOutOfStock StockStatus = "out_of_stock"
)

// MedicationInfo is one medication's identity, dosing rule and stock level.
// Fields are set freely; validation happens in the repository.
type MedicationInfo struct {
	ID                int64  `json:"id"`
	Name              string `json:"name" validate:"required,notblank"`
	Color             string `json:"color" validate:"required,notblank"`
	DosageForm        string `json:"dosage_form" validate:"required,notblank"`
	TotalQuantity     int    `json:"total_quantity" validate:"min=0"`
	RemainingQuantity int    `json:"remaining_quantity" validate:"min=0"`
	DosagePerIntake   int    `json:"dosage_per_intake" validate:"min=0"`
	LowStockThreshold int    `json:"low_stock_threshold" validate:"min=0"`
	Unit              string `json:"unit"`
	PhotoPath         string `json:"photo_path,omitempty"`
	CreatedAt         int64  `json:"created_at"` // epoch ms
	UpdatedAt         int64  `json:"updated_at"` // epoch ms
}

// NewMedication registers a medication with a full stock: remaining equals
// total and both timestamps are now.
func NewMedication(clk clock.Clock, name, color, dosageForm string, total, dosagePerIntake, lowStockThreshold int, unit string) MedicationInfo {
	if unit == "" {
		unit = constants.DefaultUnit
	}
	now := clock.Or(clk).NowMillis()
	return MedicationInfo{
		Name:              name,
		Color:             color,
		DosageForm:        dosageForm,
		TotalQuantity:     total,
		RemainingQuantity: total,
		DosagePerIntake:   dosagePerIntake,
		LowStockThreshold: lowStockThreshold,
		Unit:              unit,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Status evaluates the stock state from the current field values.
func (m MedicationInfo) Status() StockStatus {
	switch {
	case m.RemainingQuantity <= 0:
		return StockOutOfStock
	case m.RemainingQuantity <= m.LowStockThreshold:
		return StockLow
	default:
		return StockSufficient
	}
}

// IsOutOfStock reports remaining == 0, regardless of the threshold.
func (m MedicationInfo) IsOutOfStock() bool {
	return m.Status() == StockOutOfStock
}

// IsLowStock reports 0 < remaining <= threshold. An empty medication is out
// of stock, not low.
func (m MedicationInfo) IsLowStock() bool {
	return m.Status() == StockLow
}

// RemainingPercentage returns round(remaining/total*100), or 0 when there is
// no stock or no total to compare against.
func (m MedicationInfo) RemainingPercentage() int {
	if m.TotalQuantity <= 0 || m.RemainingQuantity <= 0 {
		return 0
	}
	return int(math.Round(float64(m.RemainingQuantity) * 100 / float64(m.TotalQuantity)))
}

// NeedsRefill reports whether the remaining percentage has dropped to
// percentThreshold or below.
func (m MedicationInfo) NeedsRefill(percentThreshold int) bool {
	return m.RemainingPercentage() <= percentThreshold
}

// RemainingAfterDose is the stock left after taking dosage units. It never
// goes below zero, and a zero or negative dosage leaves stock unchanged.
func (m MedicationInfo) RemainingAfterDose(dosage int) int {
	if dosage <= 0 {
		return m.RemainingQuantity
	}
	remaining := m.RemainingQuantity - dosage
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Touch sets UpdatedAt to now.
func (m *MedicationInfo) Touch(now int64) {
	m.UpdatedAt = now
}

func (m MedicationInfo) String() string {
	return fmt.Sprintf("MedicationInfo{id=%d, name=%q, color=%q, dosageForm=%q, remaining=%d/%d %s, dosagePerIntake=%d, lowStockThreshold=%d, status=%s}",
		m.ID, m.Name, m.Color, m.DosageForm, m.RemainingQuantity, m.TotalQuantity, m.Unit,
		m.DosagePerIntake, m.LowStockThreshold, m.Status())
}
