package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// uiOut receives human-readable status output. Machine-readable output
// (--json, --stdout) goes to the command's own writer instead.
var uiOut io.Writer = os.Stdout

var (
	colorAccent = lipgloss.Color("36")
	colorOK     = lipgloss.Color("35")
	colorWarn   = lipgloss.Color("220")
	colorFail   = lipgloss.Color("167")
	colorCmd    = lipgloss.Color("75")
	colorValue  = lipgloss.Color("255")
	colorLabel  = lipgloss.Color("245")
	colorMuted  = lipgloss.Color("240")
)

var (
	// StyleTitle renders environment headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorMuted)
	// StyleValue renders paths, dists and other values.
	StyleValue = lipgloss.NewStyle().Foreground(colorValue)
	// StyleWarning renders warning text.
	StyleWarning = lipgloss.NewStyle().Foreground(colorWarn)

	styleOK      = lipgloss.NewStyle().Foreground(colorOK)
	styleFail    = lipgloss.NewStyle().Foreground(colorFail)
	styleLabel   = lipgloss.NewStyle().Foreground(colorLabel)
	styleKey     = lipgloss.NewStyle().Foreground(colorLabel).Width(28)
	styleCommand = lipgloss.NewStyle().Foreground(colorCmd)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorAccent)
)

// status line markers
const (
	markOK     = "✓"
	markWarn   = "!"
	markInfo   = "›"
	markFile   = "→"
	markLink   = "+"
	markUnlink = "-"
)

func line(indent bool, parts ...string) {
	s := strings.Join(parts, " ")
	if indent {
		s = "  " + s
	}
	fmt.Fprintln(uiOut, s)
}

func printTitle(format string, args ...any) {
	line(false, StyleTitle.Render(fmt.Sprintf(format, args...)))
}

func printSuccess(format string, args ...any) {
	line(false, styleOK.Render(markOK), fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	line(false, StyleWarning.Render(markWarn), StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	line(false, styleLabel.Render(markInfo), fmt.Sprintf(format, args...))
}

// printDetail prints an indented, muted line under the previous status.
func printDetail(format string, args ...any) {
	line(true, StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints a path that was written.
func printFile(path string) {
	line(true, StyleDim.Render(markFile), StyleValue.Render(path))
}

// printKeyValue prints a recipe or package name next to what it resolved to.
func printKeyValue(key, value string) {
	line(true, styleKey.Render(key), StyleValue.Render(value))
}

// printChange prints one planned link (add) or unlink.
func printChange(add bool, item string) {
	if add {
		line(true, styleOK.Render(markLink), item)
		return
	}
	line(true, styleFail.Render(markUnlink), item)
}

// printStats prints counters on one line, tagged "cached" when every result
// came from the cache and "fresh" otherwise.
func printStats(parts []string, cached bool) {
	tag := styleLabel.Render("fresh")
	if cached {
		tag = styleOK.Render("cached")
	}
	rendered := make([]string, 0, len(parts)+1)
	for _, p := range parts {
		rendered = append(rendered, StyleDim.Render(p))
	}
	line(true, strings.Join(append(rendered, tag), StyleDim.Render(" · ")))
}

func printNextStep(description, cmd string) {
	line(false, StyleDim.Render(description+":"), styleCommand.Render(cmd))
}

// plural formats a count with a noun, adding "s" unless n is 1.
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
