package cmi_test

import (
	"testing"

	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(seed map[string]string) *cmi.Store {
	return cmi.NewStore(cmi.DefaultRegistry(), seed)
}

func TestStore_Defaults(t *testing.T) {
	s := newStore(nil)
	defaults := map[string]string{
		"cmi.completion_status":              "incomplete",
		"cmi.success_status":                 "unknown",
		"cmi.score.raw":                      "",
		"cmi.score.min":                      "0",
		"cmi.score.max":                      "100",
		"cmi.score.scaled":                   "",
		"cmi.session_time":                   "PT0H0M0S",
		"cmi.total_time":                     "PT0H0M0S",
		"cmi.suspend_data":                   "",
		"cmi.location":                       "",
		"cmi.progress_measure":               "",
		"cmi.learner_id":                     "",
		"cmi.mode":                           "normal",
		"cmi.credit":                         "credit",
		"cmi.entry":                          "ab-initio",
		"cmi._version":                       "1.0",
		"cmi.score._children":                "scaled,raw,min,max",
		"cmi.objectives._count":              "0",
		"cmi.learner_preference.audio_level": "1",
	}
	for name, want := range defaults {
		got, err := s.Read(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestStore_SeedOverridesDefault(t *testing.T) {
	s := newStore(map[string]string{"cmi.learner_id": "learner-7", "cmi.entry": "resume"})

	id, err := s.Read("cmi.learner_id")
	require.NoError(t, err)
	assert.Equal(t, "learner-7", id)

	entry, _ := s.Read("cmi.entry")
	assert.Equal(t, "resume", entry)
}

func TestStore_WriteRoundTripIsVerbatim(t *testing.T) {
	s := newStore(nil)
	values := map[string]string{
		"cmi.completion_status": "completed",
		"cmi.success_status":    "passed",
		"cmi.score.raw":         "087.50",
		"cmi.score.scaled":      "0.5",
		"cmi.session_time":      "PT1H5M",
		"cmi.suspend_data":      `{"page":3}`,
		"cmi.location":          "slide-4",
		"cmi.progress_measure":  "1",
	}
	for name, v := range values {
		require.NoError(t, s.Write(name, v), name)
		got, err := s.Read(name)
		require.NoError(t, err)
		assert.Equal(t, v, got, name)
	}
}

func TestStore_WriteErrors(t *testing.T) {
	s := newStore(nil)
	tests := []struct {
		name, value string
		want        domain.ErrorCode
	}{
		{"cmi.bogus", "x", domain.UndefinedDataModelElement},
		{"adl.nav.request", "continue", domain.UnimplementedDataModelElement},
		{"cmi.learner_id", "x", domain.DataModelElementIsReadOnly},
		{"cmi.total_time", "PT1H", domain.DataModelElementIsReadOnly},
		{"cmi._version", "2.0", domain.DataModelElementIsReadOnly},
		{"cmi.objectives._count", "3", domain.DataModelElementIsReadOnly},
		{"cmi.completion_status", "done", domain.DataModelElementTypeMismatch},
		{"cmi.score.scaled", "1.5", domain.DataModelElementValueOutOfRange},
		{"cmi.score.scaled", "high", domain.DataModelElementTypeMismatch},
		{"cmi.session_time", "1 hour", domain.DataModelElementTypeMismatch},
		{"cmi.exit", "quit", domain.DataModelElementTypeMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name+"="+tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, cmi.CodeOf(s.Write(tt.name, tt.value)))
		})
	}
}

func TestStore_WriteOnlyExit(t *testing.T) {
	s := newStore(nil)
	require.NoError(t, s.Write("cmi.exit", "suspend"))

	_, err := s.Read("cmi.exit")
	assert.Equal(t, domain.DataModelElementIsWriteOnly, cmi.CodeOf(err))

	raw, ok := s.Raw("cmi.exit")
	assert.True(t, ok)
	assert.Equal(t, "suspend", raw)
}

func TestStore_Objectives(t *testing.T) {
	s := newStore(nil)

	// a new entry needs its id first
	assert.Equal(t, domain.DataModelDependencyNotEstablished, cmi.CodeOf(s.Write("cmi.objectives.0.score.raw", "5")))
	// indices are sequential
	assert.Equal(t, domain.GeneralSetFailure, cmi.CodeOf(s.Write("cmi.objectives.1.id", "obj-b")))

	require.NoError(t, s.Write("cmi.objectives.0.id", "obj-a"))
	require.NoError(t, s.Write("cmi.objectives.0.score.raw", "5"))
	require.NoError(t, s.Write("cmi.objectives.1.id", "obj-b"))

	count, err := s.Read("cmi.objectives._count")
	require.NoError(t, err)
	assert.Equal(t, "2", count)

	// ids are unique across entries
	assert.Equal(t, domain.GeneralSetFailure, cmi.CodeOf(s.Write("cmi.objectives.1.id", "obj-a")))
	// rewriting an entry's own id is fine
	assert.NoError(t, s.Write("cmi.objectives.0.id", "obj-a"))

	status, err := s.Read("cmi.objectives.1.success_status")
	require.NoError(t, err)
	assert.Equal(t, "unknown", status)

	_, err = s.Read("cmi.objectives.1.description")
	assert.Equal(t, domain.DataModelElementValueNotInitialized, cmi.CodeOf(err))

	_, err = s.Read("cmi.objectives.2.id")
	assert.Equal(t, domain.GeneralGetFailure, cmi.CodeOf(err))

	children, err := s.Read("cmi.objectives.0.score._children")
	require.NoError(t, err)
	assert.Equal(t, "scaled,raw,min,max", children)
}

func TestStore_Interactions(t *testing.T) {
	s := newStore(nil)
	require.NoError(t, s.Write("cmi.interactions.0.id", "q1"))

	assert.Equal(t, domain.DataModelDependencyNotEstablished,
		cmi.CodeOf(s.Write("cmi.interactions.0.learner_response", "a")))
	require.NoError(t, s.Write("cmi.interactions.0.type", "choice"))
	require.NoError(t, s.Write("cmi.interactions.0.learner_response", "a"))
	require.NoError(t, s.Write("cmi.interactions.0.result", "correct"))
	require.NoError(t, s.Write("cmi.interactions.0.result", "0.8"))
	require.NoError(t, s.Write("cmi.interactions.0.latency", "PT12S"))

	assert.Equal(t, domain.UnimplementedDataModelElement,
		cmi.CodeOf(s.Write("cmi.interactions.0.correct_responses.0.pattern", "a")))
	assert.Equal(t, domain.DataModelElementTypeMismatch,
		cmi.CodeOf(s.Write("cmi.interactions.0.type", "essay")))
}

func TestStore_CommentsFromLMSAreSeeded(t *testing.T) {
	s := newStore(map[string]string{
		"cmi.comments_from_lms.0.comment": "Welcome back",
		"cmi.comments_from_lms.1.comment": "Module 2 updated",
	})

	count, _ := s.Read("cmi.comments_from_lms._count")
	assert.Equal(t, "2", count)

	got, err := s.Read("cmi.comments_from_lms.1.comment")
	require.NoError(t, err)
	assert.Equal(t, "Module 2 updated", got)

	assert.Equal(t, domain.DataModelElementIsReadOnly, cmi.CodeOf(s.Write("cmi.comments_from_lms.2.comment", "x")))

	// learner comments have no id dependency
	require.NoError(t, s.Write("cmi.comments_from_learner.0.location", "page-2"))
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	s := newStore(map[string]string{"cmi.learner_id": "l1"})
	require.NoError(t, s.Write("cmi.location", "p1"))

	snap := s.Snapshot()
	assert.Equal(t, domain.Snapshot{"cmi.learner_id": "l1", "cmi.location": "p1"}, snap)

	snap["cmi.location"] = "mutated"
	got, _ := s.Read("cmi.location")
	assert.Equal(t, "p1", got)
}
