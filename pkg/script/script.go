// Package script runs scripted SCORM call sequences against an API instance.
//
// A script is a YAML document listing the calls a SCO would make, each with
// optional expectations on the returned string and the error code it leaves
// behind. Running a script produces a Transcript that can be printed, compared
// against golden files, or used to fail a CI job when content misbehaves.
package script

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Call names accepted in a step.
const (
	CallInitialize     = "Initialize"
	CallTerminate      = "Terminate"
	CallGetValue       = "GetValue"
	CallSetValue       = "SetValue"
	CallCommit         = "Commit"
	CallGetLastError   = "GetLastError"
	CallGetErrorString = "GetErrorString"
	CallGetDiagnostic  = "GetDiagnostic"
)

var calls = []string{
	CallInitialize, CallTerminate, CallGetValue, CallSetValue,
	CallCommit, CallGetLastError, CallGetErrorString, CallGetDiagnostic,
}

// Script is a named sequence of API calls.
type Script struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`

	// Seed pre-populates the data store, as a host would at launch.
	Seed map[string]string `yaml:"seed,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one API call.
type Step struct {
	Call string `yaml:"call"`

	// Element is the data model element of GetValue and SetValue.
	Element string `yaml:"element,omitempty"`

	// Value is the SetValue argument.
	Value string `yaml:"value,omitempty"`

	// Param is the string argument of Initialize, Terminate and Commit, or the
	// code passed to GetErrorString and GetDiagnostic.
	Param string `yaml:"param,omitempty"`

	// Expect is the exact result string. Nil skips the check.
	Expect *string `yaml:"expect,omitempty"`

	// Error is the expected error code after the call. Nil skips the check.
	Error *int `yaml:"error,omitempty"`
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}
	return Parse(bytes.NewReader(data))
}

// Parse decodes a script. Unknown fields and unknown call names are rejected.
func Parse(r io.Reader) (*Script, error) {
	var s Script
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid script: %w", err)
	}
	return &s, nil
}

// Validate checks that the script names itself and that every step is a known call.
func (s *Script) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	for i, step := range s.Steps {
		if !slices.Contains(calls, step.Call) {
			return fmt.Errorf("step %d: unknown call %q", i+1, step.Call)
		}
		if (step.Call == CallGetValue || step.Call == CallSetValue) && step.Element == "" {
			if step.Error == nil {
				return fmt.Errorf("step %d: %s needs an element (or an expected error)", i+1, step.Call)
			}
		}
	}
	return nil
}
