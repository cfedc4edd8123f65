// Package topics formats topic information for the command line.
package topics

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nfrund/eventpress"
)

var titleCaser = cases.Title(language.English)

// Title capitalizes a policy or scheduler name for display.
func Title(s string) string {
	return titleCaser.String(s)
}

// Verdict is the outcome of one validation rule.
type Verdict struct {
	Operation string
	Err       error
}

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(out io.Writer, list []eventpress.TopicInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PATH\tPOLICY\tSCHEDULER\tVALVE\tSUBSCRIBERS\tPUBLISHED")
	fmt.Fprintln(w, "----\t------\t---------\t-----\t-----------\t---------")

	if len(list) == 0 {
		fmt.Fprintln(w, "No topics found")
		return
	}
	for _, info := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\n",
			truncateString(info.Path, 60),
			Title(info.Policy),
			Title(info.Scheduler),
			valveState(info),
			info.Subscribers,
			info.Published)
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(out io.Writer, list []eventpress.TopicInfo) error {
	if list == nil {
		list = []eventpress.TopicInfo{}
	}
	output := struct {
		Topics []eventpress.TopicInfo `json:"topics"`
		Count  int                    `json:"count"`
	}{
		Topics: list,
		Count:  len(list),
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayValidation prints one line per rule with a pass or fail mark.
func DisplayValidation(out io.Writer, path string, verdicts []Verdict) {
	fmt.Fprintf(out, "Topic %s\n", strconv.Quote(path))
	for _, v := range verdicts {
		if v.Err != nil {
			fmt.Fprintf(out, "  ❌ %-10s %v\n", v.Operation, v.Err)
			continue
		}
		fmt.Fprintf(out, "  ✅ %-10s ok\n", v.Operation)
	}
}

func valveState(info eventpress.TopicInfo) string {
	switch {
	case !info.ValveEnabled:
		return "-"
	case info.ValveOpen:
		return "open"
	default:
		return "closed"
	}
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
