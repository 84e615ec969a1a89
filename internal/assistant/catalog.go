package assistant

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// catalogText renders a tool catalog one tool per line for change detection.
func catalogText(tools []ToolDescriptor) string {
	var sb strings.Builder
	for _, t := range tools {
		sb.WriteString(t.Name)
		sb.WriteString(" ")
		sb.Write(t.InputSchema)
		sb.WriteString("\n")
	}
	return sb.String()
}

// catalogDiff returns a line diff of two catalogs, prefixed +/-, or "" when equal.
func catalogDiff(prev, cur string) string {
	if prev == cur {
		return ""
	}
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(prev, cur)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := ""
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		default:
			continue
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
		}
	}
	return sb.String()
}
