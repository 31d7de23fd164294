package commands

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/wonny/edupulse/backend/internal/analysis"
	"github.com/wonny/edupulse/backend/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// Every command prints through these helpers
// ═══════════════════════════════════════════════════════════

// PrintHeader prints a boxed title
func PrintHeader(title string) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s\n", title)
	PrintSeparator()
}

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	PrintTableRow(columns, widths)

	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintList prints a bulleted list
func PrintList(items []string) {
	for _, item := range items {
		fmt.Printf("   • %s\n", item)
	}
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// riskIcon returns the traffic-light marker for a level
func riskIcon(level contracts.RiskLevel) string {
	switch level {
	case contracts.RiskRed:
		return "🔴"
	case contracts.RiskYellow:
		return "🟡"
	default:
		return "🟢"
	}
}

// PrintAnalysis renders one analysis for the terminal
func PrintAnalysis(title string, a analysis.Analysis) {
	as := a.Assessment

	PrintHeader(title)
	PrintKeyValue("Baseline", fmt.Sprintf("%s %s (rule score %d)", riskIcon(as.BaselineRisk), as.BaselineRisk, as.RuleScore), 12)
	PrintKeyValue("Probability", fmt.Sprintf("%.1f%%", as.MLRiskScore()), 12)
	PrintKeyValue("Final", fmt.Sprintf("%s %s - %s", riskIcon(as.FinalRisk), as.FinalRisk, a.Summary.Label), 12)
	PrintKeyValue("Stage", fmt.Sprintf("%d", as.Stage), 12)
	PrintKeyValue("Cluster", fmt.Sprintf("%d %s", a.Cluster.ID, a.Cluster.Name), 12)
	PrintKeyValue("Urgency", a.Summary.Urgency, 12)

	PrintSeparator()
	fmt.Println("  Risk factors")
	PrintList(as.RiskFactors)

	PrintSeparator()
	fmt.Println("  Recommendations")
	for _, line := range a.Recommendations {
		fmt.Printf("   %s\n", line)
	}

	PrintSeparator()
	fmt.Println("  Intervention plan")
	for _, step := range a.Stages {
		fmt.Printf("   %d. %s (%s)\n", step.Step, step.Name, step.Timeline)
	}
	PrintDoubleSeparator()
}

// formatCount renders a count with thousands separators
func formatCount(n int) string {
	return humanize.Comma(int64(n))
}
