package cli

import (
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/pillbook/internal/clock"
	"github.com/julianstephens/pillbook/internal/constants"
	"github.com/julianstephens/pillbook/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
)

// stockBadge renders a medication's stock status in its color.
func stockBadge(m models.MedicationInfo) string {
	switch m.Status() {
	case models.StockOutOfStock:
		return errStyle.Render("out of stock")
	case models.StockLow:
		return warnStyle.Render("low stock")
	default:
		return okStyle.Render("ok")
	}
}

func formatMillis(ms int64) string {
	return clock.Time(ms).Format(constants.DateTimeFormat)
}

func confirmPrompt(title string) (bool, error) {
	var ok bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	).WithTheme(huh.ThemeBase()).Run()
	if err != nil {
		return false, fmt.Errorf("confirmation prompt failed: %w", err)
	}
	return ok, nil
}

func textPrompt(title string) (string, error) {
	var text string
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title(title).
				CharLimit(5000).
				Value(&text),
		),
	).WithTheme(huh.ThemeBase()).Run()
	if err != nil {
		return "", fmt.Errorf("input prompt failed: %w", err)
	}
	return text, nil
}
