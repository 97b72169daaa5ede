package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/deepnoodle-ai/skillver"
	"github.com/deepnoodle-ai/skillver/outcome"
	"github.com/fatih/color"
	"github.com/pmezard/go-difflib/difflib"
)

var (
	successStyle = color.New(color.FgGreen)
	warningStyle = color.New(color.FgYellow, color.Bold)
	errorStyle   = color.New(color.FgRed, color.Bold)
	infoStyle    = color.New(color.FgCyan)
	mutedStyle   = color.New(color.FgHiBlack)
	addStyle     = color.New(color.FgGreen)
	removeStyle  = color.New(color.FgRed)
	hunkStyle    = color.New(color.FgCyan)
)

const (
	arrow     = "→"
	checkmark = "✓"
	xmark     = "✗"
	skipmark  = "•"
)

// printResult writes a one-line summary of a handled document.
func printResult(path string, r skillver.Result) {
	switch r.Action {
	case skillver.Ignored:
		mutedStyle.Printf("%s %s ignored\n", skipmark, path)
	case skillver.ReadFailed:
		errorStyle.Printf("%s %s\n", xmark, r.Message)
	case skillver.NoVersion:
		warningStyle.Printf("%s %s\n", skipmark, r.Message)
	case skillver.Processed:
		style, mark := successStyle, checkmark
		if worst(r.Steps) == outcome.Failed {
			style, mark = errorStyle, xmark
		}
		style.Printf("%s %s\n", mark, r.Message)
	}
}

// worst returns the most severe step status.
func worst(steps []outcome.Outcome) outcome.Status {
	status := outcome.Succeeded
	for _, s := range steps {
		if s.Failed() {
			return outcome.Failed
		}
		if s.Skipped() {
			status = outcome.Skipped
		}
	}
	return status
}

// unifiedDiff returns the unified diff between two document versions, or
// an empty string when they are identical.
func unifiedDiff(oldContent, newContent, oldFile, newFile string, contextLines int) (string, error) {
	if oldContent == newContent {
		return "", nil
	}
	if contextLines < 0 {
		contextLines = 0
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: oldFile,
		ToFile:   newFile,
		FromDate: "snapshot",
		ToDate:   "current",
		Context:  contextLines,
	}
	return difflib.GetUnifiedDiffString(diff)
}

// printDiff colourizes a unified diff line by line.
func printDiff(diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			color.New(color.Bold).Print(line)
		case strings.HasPrefix(line, "@@"):
			hunkStyle.Print(line)
		case strings.HasPrefix(line, "+"):
			addStyle.Print(line)
		case strings.HasPrefix(line, "-"):
			removeStyle.Print(line)
		default:
			fmt.Print(line)
		}
	}
}

func msDuration(ms int) time.Duration {
	if ms <= 0 {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}
