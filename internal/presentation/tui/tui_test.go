package tui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementsMarkdown(t *testing.T) {
	md := ElementsMarkdown([]cmi.ElementInfo{
		{Name: "cmi.mode", Access: "read-only", Default: "normal", Doc: "Presentation mode"},
		{Name: "cmi.exit", Access: "write-only", Doc: "How the SCO | was left"},
	})
	assert.Contains(t, md, "| `cmi.mode` | read-only | `normal` | Presentation mode |")
	assert.Contains(t, md, "| `cmi.exit` | write-only |  | How the SCO \\| was left |")
	assert.Contains(t, md, "2 elements.")
}

func TestPrintTranscript_Plain(t *testing.T) {
	s, err := script.Parse(strings.NewReader("name: plain\nsteps:\n  - call: GetLastError\n    expect: \"0\"\n"))
	require.NoError(t, err)
	transcript := &script.Transcript{Name: s.Name, Entries: []script.Entry{
		{Index: 1, Step: s.Steps[0], Result: "0", Code: "0", Checked: true},
	}}

	var buf bytes.Buffer
	PrintTranscript(&buf, transcript, false)
	assert.Equal(t, transcript.String(), buf.String())
}

func TestPrintTranscript_Color(t *testing.T) {
	transcript := &script.Transcript{Name: "colored", Entries: []script.Entry{
		{Index: 1, Step: script.Step{Call: script.CallInitialize}, Result: "false", Code: "103", Checked: true, Failure: "want error 0"},
	}}

	var buf bytes.Buffer
	PrintTranscript(&buf, transcript, true)
	out := buf.String()
	assert.Contains(t, out, "colored")
	assert.Contains(t, out, "FAIL: want error 0")
	assert.Contains(t, out, "1 failed")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "1.2.3")
}
