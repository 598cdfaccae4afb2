package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/scorm/pkg/cmi"
)

// ElementsMarkdown renders a data model listing as a markdown table.
func ElementsMarkdown(infos []cmi.ElementInfo) string {
	var b strings.Builder
	b.WriteString("# SCORM 2004 data model\n\n")
	b.WriteString("| Element | Access | Default | Description |\n")
	b.WriteString("|---|---|---|---|\n")
	for _, info := range infos {
		def := info.Default
		if def != "" {
			def = "`" + def + "`"
		}
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s |\n", info.Name, info.Access, def, escapeCell(info.Doc))
	}
	fmt.Fprintf(&b, "\n%d elements.\n", len(infos))
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
