package models

import (
	"fmt"
	"strings"
)

// Color is the visual color of a medication.
type Color string

const (
	ColorWhite  Color = "white"
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorRed    Color = "red"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorOrange Color = "orange"
	ColorBrown  Color = "brown"
	ColorPurple Color = "purple"
	ColorClear  Color = "clear"
	ColorOther  Color = "other"
)

// DosageForm is the physical shape a medication comes in.
type DosageForm string

const (
	FormPill      DosageForm = "pill"
	FormTablet    DosageForm = "tablet"
	FormCapsule   DosageForm = "capsule"
	FormLiquid    DosageForm = "liquid"
	FormInjection DosageForm = "injection"
	FormPowder    DosageForm = "powder"
	FormCream     DosageForm = "cream"
	FormPatch     DosageForm = "patch"
	FormInhaler   DosageForm = "inhaler"
	FormOther     DosageForm = "other"
)

// AllColors returns the known colors in display order.
func AllColors() []Color {
	return []Color{
		ColorWhite, ColorYellow, ColorBlue, ColorRed, ColorGreen, ColorPink,
		ColorOrange, ColorBrown, ColorPurple, ColorClear, ColorOther,
	}
}

// AllDosageForms returns the known dosage forms in display order.
func AllDosageForms() []DosageForm {
	return []DosageForm{
		FormPill, FormTablet, FormCapsule, FormLiquid, FormInjection,
		FormPowder, FormCream, FormPatch, FormInhaler, FormOther,
	}
}

// ParseColor matches s case-insensitively against the known colors.
func ParseColor(s string) (Color, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, c := range AllColors() {
		if string(c) == needle {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown color: %q", s)
}

// ParseDosageForm matches s case-insensitively against the known forms.
func ParseDosageForm(s string) (DosageForm, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllDosageForms() {
		if string(f) == needle {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown dosage form: %q", s)
}
