// Package presenter provides consistent CLI output functionality for user-facing messages,
// including success, error, warning, and informational output with color support and quiet mode.
package presenter

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
)

// DeploySummary represents the outcome of a provisioning run
type DeploySummary struct {
	Target       string
	RunID        string
	StepsRun     int
	StepsSkipped int
	Warnings     int
	Failed       int
}

// Presenter defines the interface for consistent CLI output
type Presenter interface {
	Error(err error, context string)
	Success(message string)
	Warning(message string)
	Info(message string)
	Section(title string)
	Prompt(question string, options ...string) string
	Summary(summary *DeploySummary)
	Separator()
	SetQuiet(quiet bool)
	IsQuiet() bool
}

// TerminalPresenter implements Presenter for terminal output
type TerminalPresenter struct {
	output      io.Writer
	errorOutput io.Writer
	input       io.Reader
	colorMode   ColorMode
	quiet       bool
}

// ColorMode represents different color output modes
type ColorMode int

const (
	// ColorAuto automatically detects whether to use colored output based on terminal capabilities
	ColorAuto ColorMode = iota
	// ColorAlways forces colored output regardless of terminal capabilities
	ColorAlways
	// ColorNever disables colored output regardless of terminal capabilities
	ColorNever
)

// New creates a new TerminalPresenter with default settings
func New() *TerminalPresenter {
	return NewWithOptions(os.Stdout, os.Stderr, detectColorMode())
}

// NewWithOptions creates a TerminalPresenter with custom settings
func NewWithOptions(output, errorOutput io.Writer, colorMode ColorMode) *TerminalPresenter {
	presenter := &TerminalPresenter{
		output:      output,
		errorOutput: errorOutput,
		input:       os.Stdin,
		colorMode:   colorMode,
		quiet:       false,
	}

	switch colorMode {
	case ColorAlways:
		color.NoColor = false
	case ColorNever:
		color.NoColor = true
	case ColorAuto:
		// Let color package auto-detect
	}

	return presenter
}

// detectColorMode determines the appropriate color mode based on environment
func detectColorMode() ColorMode {
	if os.Getenv("NO_COLOR") != "" {
		return ColorNever
	}

	switch os.Getenv("AGENT42_COLOR") {
	case "always", "force":
		return ColorAlways
	case "never", "off":
		return ColorNever
	case "auto", "":
		return ColorAuto
	default:
		return ColorAuto
	}
}

// Error displays an error message to stderr
func (p *TerminalPresenter) Error(err error, context string) {
	if err == nil {
		return
	}

	errorColor := color.New(color.FgRed, color.Bold)
	if context != "" {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %s: %v\n", context, err)
	} else {
		errorColor.Fprintf(p.errorOutput, "[ERROR] %v\n", err)
	}
}

// Success displays a success message
func (p *TerminalPresenter) Success(message string) {
	if p.quiet {
		return
	}
	successColor := color.New(color.FgGreen)
	successColor.Fprintf(p.output, "[OK] %s\n", message)
}

// Warning displays a warning message
func (p *TerminalPresenter) Warning(message string) {
	if p.quiet {
		return
	}
	warningColor := color.New(color.FgYellow)
	warningColor.Fprintf(p.output, "[WARN] %s\n", message)
}

// Info displays an informational message
func (p *TerminalPresenter) Info(message string) {
	if p.quiet {
		return
	}
	fmt.Fprintf(p.output, "%s\n", message)
}

// Section displays a section header
func (p *TerminalPresenter) Section(title string) {
	if p.quiet {
		return
	}
	sectionColor := color.New(color.FgCyan, color.Bold)
	sectionColor.Fprintf(p.output, "\n=== %s ===\n", title)
}

// Prompt asks the user a question and returns the trimmed answer.
// If options are provided, the answer must match one of them (case-insensitive);
// the question is re-asked until it does.
func (p *TerminalPresenter) Prompt(question string, options ...string) string {
	reader := bufio.NewReader(p.input)
	for {
		if len(options) > 0 {
			fmt.Fprintf(p.output, "%s [%s]: ", question, strings.Join(options, "/"))
		} else {
			fmt.Fprintf(p.output, "%s: ", question)
		}

		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return ""
		}
		answer := strings.TrimSpace(line)

		if len(options) == 0 {
			return answer
		}
		for _, opt := range options {
			if strings.EqualFold(answer, opt) {
				return strings.ToLower(answer)
			}
		}
	}
}

// Summary displays provisioning run statistics
func (p *TerminalPresenter) Summary(summary *DeploySummary) {
	if p.quiet || summary == nil {
		return
	}

	p.Section("Deploy Summary")
	fmt.Fprintf(p.output, "Target:  %s\n", summary.Target)
	fmt.Fprintf(p.output, "Run ID:  %s\n", summary.RunID)
	fmt.Fprintf(p.output, "Steps:   %d run, %d skipped\n", summary.StepsRun, summary.StepsSkipped)
	if summary.Warnings > 0 {
		warningColor := color.New(color.FgYellow)
		warningColor.Fprintf(p.output, "Warnings: %d\n", summary.Warnings)
	}
	if summary.Failed > 0 {
		errorColor := color.New(color.FgRed)
		errorColor.Fprintf(p.output, "Failed:  %d\n", summary.Failed)
	}
}

// Separator displays a visual separator line
func (p *TerminalPresenter) Separator() {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.output, strings.Repeat("-", 50))
}

// SetQuiet enables or disables quiet mode
func (p *TerminalPresenter) SetQuiet(quiet bool) {
	p.quiet = quiet
}

// IsQuiet returns whether quiet mode is enabled
func (p *TerminalPresenter) IsQuiet() bool {
	return p.quiet
}

// SetInput overrides the reader used by Prompt. Used by tests.
func (p *TerminalPresenter) SetInput(r io.Reader) {
	p.input = r
}

var defaultPresenter Presenter = New()

// SetDefault replaces the package-level presenter
func SetDefault(p Presenter) {
	defaultPresenter = p
}

// Default returns the package-level presenter
func Default() Presenter {
	return defaultPresenter
}

// Error displays an error via the default presenter
func Error(err error, context string) {
	defaultPresenter.Error(err, context)
}

// Success displays a success message via the default presenter
func Success(message string) {
	defaultPresenter.Success(message)
}

// Warning displays a warning message via the default presenter
func Warning(message string) {
	defaultPresenter.Warning(message)
}

// Info displays an informational message via the default presenter
func Info(message string) {
	defaultPresenter.Info(message)
}

// Section displays a section header via the default presenter
func Section(title string) {
	defaultPresenter.Section(title)
}

// Prompt asks a question via the default presenter
func Prompt(question string, options ...string) string {
	return defaultPresenter.Prompt(question, options...)
}

// Summary displays deploy statistics via the default presenter
func Summary(summary *DeploySummary) {
	defaultPresenter.Summary(summary)
}

// Separator displays a separator via the default presenter
func Separator() {
	defaultPresenter.Separator()
}

// SetQuiet sets quiet mode on the default presenter
func SetQuiet(quiet bool) {
	defaultPresenter.SetQuiet(quiet)
}
