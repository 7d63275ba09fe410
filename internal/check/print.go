package check

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Print writes a human readable summary of report to w.
func Print(w io.Writer, report *Report) {
	ok := color.New(color.FgGreen).SprintFunc()
	bad := color.New(color.FgRed, color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	title := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintf(w, "%s %s\n", title("Checking"), report.Target)
	if report.Title != "" {
		fmt.Fprintf(w, "%s\n", dim(report.Title))
	}

	for _, res := range report.Results {
		if res.OK() {
			fmt.Fprintf(w, "  %s %-50s %s\n", ok(res.Status), res.Ref, dim(fmt.Sprintf("%d bytes", res.Size)))
			continue
		}
		status := "ERR"
		if res.Status != 0 {
			status = fmt.Sprint(res.Status)
		}
		line := fmt.Sprintf("  %s %-50s", bad(status), res.Ref)
		if res.Err != nil {
			line += " " + dim(res.Err.Error())
		} else if res.Status == 200 {
			line += " " + dim("empty")
		}
		fmt.Fprintln(w, line)
	}

	for _, ext := range report.External {
		fmt.Fprintf(w, "  %s %s\n", dim("ext"), dim(ext.Ref))
	}

	failed := len(report.Failed())
	if failed == 0 {
		fmt.Fprintf(w, "%s %d assets served\n", ok("OK"), len(report.Results))
		return
	}
	fmt.Fprintf(w, "%s %d of %d assets failed\n", bad("FAIL"), failed, len(report.Results))
}
