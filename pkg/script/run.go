package script

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrExpectation is returned by Transcript.Err when at least one step did not
// meet its expectations.
var ErrExpectation = errors.New("script expectations not met")

// API is the SCORM surface a script drives. *scorm.API satisfies it.
type API interface {
	Initialize(param string) string
	Terminate(param string) string
	GetValue(element string) string
	SetValue(element, value string) string
	Commit(param string) string
	GetLastError() string
	GetErrorString(code string) string
	GetDiagnostic(code string) string
}

// Entry records one executed step.
type Entry struct {
	Index  int
	Step   Step
	Result string
	Code   string

	// Checked is set when the step carried expectations.
	Checked bool

	// Failure describes unmet expectations. Empty when they held.
	Failure string
}

// OK reports whether the entry met its expectations (or had none).
func (e Entry) OK() bool {
	return e.Failure == ""
}

// Call renders the invocation, e.g. SetValue("cmi.location", "p2").
func (e Entry) Call() string {
	switch e.Step.Call {
	case CallGetValue:
		return fmt.Sprintf("%s(%q)", e.Step.Call, e.Step.Element)
	case CallSetValue:
		return fmt.Sprintf("%s(%q, %q)", e.Step.Call, e.Step.Element, e.Step.Value)
	case CallGetLastError:
		return e.Step.Call + "()"
	default:
		return fmt.Sprintf("%s(%q)", e.Step.Call, e.Step.Param)
	}
}

// Transcript is the outcome of running a script.
type Transcript struct {
	Name    string
	Entries []Entry
}

// Failed returns the number of steps whose expectations did not hold.
func (t *Transcript) Failed() int {
	n := 0
	for _, e := range t.Entries {
		if !e.OK() {
			n++
		}
	}
	return n
}

// Err wraps ErrExpectation when any step failed.
func (t *Transcript) Err() error {
	if n := t.Failed(); n > 0 {
		return fmt.Errorf("%w: %d of %d steps failed", ErrExpectation, n, len(t.Entries))
	}
	return nil
}

// String renders the plain transcript used by golden files.
func (t *Transcript) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n", t.Name)
	for _, e := range t.Entries {
		fmt.Fprintf(&b, "%03d %s = %q [%s]", e.Index, e.Call(), e.Result, e.Code)
		switch {
		case !e.OK():
			fmt.Fprintf(&b, " FAIL: %s", e.Failure)
		case e.Checked:
			b.WriteString(" ok")
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "-- %d calls, %d failed\n", len(t.Entries), t.Failed())
	return b.String()
}

// WriteTo writes the plain transcript to w.
func (t *Transcript) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.String())
	return int64(n), err
}

// Run executes every step against api. It never stops early: later steps
// still run after a failed expectation, as a SCO would keep calling.
func Run(api API, s *Script) *Transcript {
	t := &Transcript{Name: s.Name, Entries: make([]Entry, 0, len(s.Steps))}
	for i, step := range s.Steps {
		result := invoke(api, step)
		code := api.GetLastError()
		t.Entries = append(t.Entries, check(Entry{
			Index:  i + 1,
			Step:   step,
			Result: result,
			Code:   code,
		}))
	}
	return t
}

func invoke(api API, step Step) string {
	switch step.Call {
	case CallInitialize:
		return api.Initialize(step.Param)
	case CallTerminate:
		return api.Terminate(step.Param)
	case CallGetValue:
		return api.GetValue(step.Element)
	case CallSetValue:
		return api.SetValue(step.Element, step.Value)
	case CallCommit:
		return api.Commit(step.Param)
	case CallGetLastError:
		return api.GetLastError()
	case CallGetErrorString:
		return api.GetErrorString(step.Param)
	case CallGetDiagnostic:
		return api.GetDiagnostic(step.Param)
	default:
		return ""
	}
}

func check(e Entry) Entry {
	var problems []string
	if want := e.Step.Expect; want != nil {
		e.Checked = true
		if *want != e.Result {
			problems = append(problems, fmt.Sprintf("want result %q", *want))
		}
	}
	if want := e.Step.Error; want != nil {
		e.Checked = true
		if strconv.Itoa(*want) != e.Code {
			problems = append(problems, fmt.Sprintf("want error %d", *want))
		}
	}
	e.Failure = strings.Join(problems, ", ")
	return e
}
