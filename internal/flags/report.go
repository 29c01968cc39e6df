package flags

import (
	"fmt"
	"strings"

	"ycmflags/internal/model"
)

// GenerateReport renders an analysis as plain text. verbose adds the
// original token of every rewritten flag and per-flag kinds.
func GenerateReport(a model.Analysis, verbose bool) string {
	var b strings.Builder

	b.WriteString("ycmflags report\n")
	b.WriteString("===============\n\n")
	fmt.Fprintf(&b, "File:        %s\n", a.File)
	fmt.Fprintf(&b, "Mode:        %s\n", a.Source)
	fmt.Fprintf(&b, "Working dir: %s\n", a.WorkingDir)
	fmt.Fprintf(&b, "Flags:       %d\n\n", len(a.Entries))

	b.WriteString("Flags\n-----\n")
	for i, e := range a.Entries {
		status := model.IconFor(e.Kind)
		switch {
		case e.Missing:
			status = model.IconMissing
		case e.IsDuplicate:
			status = model.IconDuplicate
		case e.Rewritten:
			status = model.IconRewritten
		}
		fmt.Fprintf(&b, "%3d. %s %s", i+1, status, e.Value)
		if verbose {
			fmt.Fprintf(&b, "  [%s]", e.Kind)
			if e.Original != e.Value {
				fmt.Fprintf(&b, "  (was %s)", e.Original)
			}
		}
		b.WriteString("\n")
		for _, d := range e.Diagnostics {
			fmt.Fprintf(&b, "       ! %s\n", d)
		}
	}

	b.WriteString("\nSummary\n-------\n")
	if len(a.Diagnostics) == 0 {
		b.WriteString("No problems found.\n")
	}
	for _, d := range a.Diagnostics {
		fmt.Fprintf(&b, "- %s\n", d)
	}

	if verbose {
		b.WriteString("\nLegend\n------\n")
		fmt.Fprintf(&b, "%s define  %s include  %s system include  %s quote include  %s sysroot  %s warning\n",
			model.IconDefine, model.IconInclude, model.IconSystem, model.IconQuote, model.IconSysroot, model.IconWarning)
		fmt.Fprintf(&b, "%s made absolute  %s duplicate  %s missing\n",
			model.IconRewritten, model.IconDuplicate, model.IconMissing)
	}
	return b.String()
}
