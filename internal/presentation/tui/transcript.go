package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/scorm/pkg/script"
	"github.com/muesli/termenv"
)

// PrintTranscript writes a script transcript, colouring results when color is set.
func PrintTranscript(w io.Writer, t *script.Transcript, color bool) {
	if !color {
		t.WriteTo(w)
		return
	}
	p := termenv.ColorProfile()
	fmt.Fprintln(w, termenv.String("# "+t.Name).Bold())
	for _, e := range t.Entries {
		code := termenv.String(e.Code).Foreground(p.Color("#a3e635"))
		if e.Code != "0" {
			code = termenv.String(e.Code).Foreground(p.Color("#fbbf24"))
		}
		fmt.Fprintf(w, "%s %s = %q [%s]", termenv.String(fmt.Sprintf("%03d", e.Index)).Faint(), e.Call(), e.Result, code)
		switch {
		case !e.OK():
			fmt.Fprint(w, " ", termenv.String("FAIL: "+e.Failure).Foreground(p.Color("#f87171")).Bold())
		case e.Checked:
			fmt.Fprint(w, " ", termenv.String("ok").Foreground(p.Color("#34d399")))
		}
		fmt.Fprintln(w)
	}

	summary := termenv.String(fmt.Sprintf("-- %d calls, %d failed", len(t.Entries), t.Failed()))
	if t.Failed() > 0 {
		summary = summary.Foreground(p.Color("#f87171"))
	}
	fmt.Fprintln(w, summary)
}
