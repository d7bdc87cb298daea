package view

import (
	"fmt"
	"math"
	"strings"

	"github.com/pterm/pterm"

	"github.com/teranos/replaydash/frame"
	"github.com/teranos/replaydash/sym"
)

// HealthBar renders a health value in [0, 1] as a bar width cells long.
func HealthBar(label string, health float64, width int) string {
	health = math.Min(math.Max(health, 0), 1)
	filled := int(math.Round(health * float64(width)))
	bar := strings.Repeat(sym.BarFull, filled) + strings.Repeat(sym.BarEmpty, width-filled)

	color := pterm.Green
	switch {
	case health < 0.25:
		color = pterm.Red
	case health < 0.5:
		color = pterm.Yellow
	}
	return fmt.Sprintf("%s %s %3.0f%%", label, color(bar), health*100)
}

// Inputs lists every button, active ones highlighted.
func Inputs(inputs uint16) string {
	parts := make([]string, 0, len(frame.Buttons))
	for _, b := range frame.DecodeInputs(inputs) {
		if b.Active {
			parts = append(parts, pterm.LightGreen(strings.ToUpper(b.Name)))
		} else {
			parts = append(parts, pterm.Gray(b.Name))
		}
	}
	return strings.Join(parts, " ")
}

// HashLine describes a hash comparison; empty when there is nothing to compare.
func HashLine(cmp frame.HashComparison) string {
	switch cmp.Status {
	case frame.HashMatch:
		return pterm.Green(sym.Match + " Hashes Match")
	case frame.HashMismatch:
		return pterm.Red(sym.Mismatch+" Hash Mismatch! Validation: ") + cmp.ValidationHash
	default:
		return ""
	}
}

// VariablesTable renders the replay/validation comparison table.
func VariablesTable(rows []frame.VariableRow) (string, error) {
	data := pterm.TableData{{"Variable", "Replay", "Validation", ""}}
	for _, r := range rows {
		validation, flag := sym.NoCheck, ""
		if r.HasValidation {
			validation = r.Validation
			flag = pterm.Green(sym.Match)
		}
		if r.Mismatch {
			flag = pterm.Red(sym.Mismatch)
			validation = pterm.Red(validation)
		}
		data = append(data, []string{r.Label, r.Replay, validation, flag})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// MismatchList lists the last limit mismatches, newest last.
func MismatchList(mismatches []frame.Mismatch, limit int) string {
	if len(mismatches) == 0 {
		return pterm.Gray("No mismatches detected")
	}
	shown := mismatches
	if limit > 0 && len(shown) > limit {
		shown = shown[len(shown)-limit:]
	}

	var b strings.Builder
	if hidden := len(mismatches) - len(shown); hidden > 0 {
		fmt.Fprintf(&b, "%s\n", pterm.Gray(fmt.Sprintf("… %d earlier", hidden)))
	}
	for i, m := range shown {
		badges := make([]string, len(m.Types))
		for j, t := range m.Types {
			badges[j] = pterm.Red("[" + t + "]")
		}
		fmt.Fprintf(&b, "Frame %d %s index %d  %s", m.Frame, sym.Separator, m.Index, strings.Join(badges, " "))
		if i < len(shown)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
