package cmi_test

import (
	"testing"

	"github.com/aretw0/scorm/pkg/cmi"
	"github.com/aretw0/scorm/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Lookup(t *testing.T) {
	reg := cmi.DefaultRegistry()

	b, err := reg.Lookup("cmi.objectives.12.score.scaled")
	require.NoError(t, err)
	assert.Equal(t, "cmi.objectives", b.Collection.Name)
	assert.Equal(t, 12, b.Index)
	assert.Equal(t, "score.scaled", b.Field)
	assert.Equal(t, "cmi.objectives.12.score.scaled", b.Key)

	b, err = reg.Lookup("cmi.score.scaled")
	require.NoError(t, err)
	assert.Nil(t, b.Collection)

	for name, want := range map[string]domain.ErrorCode{
		"cmi.objectives.x.id":                domain.UndefinedDataModelElement,
		"cmi.objectives.-1.id":               domain.UndefinedDataModelElement,
		"cmi.objectives.+1.id":               domain.UndefinedDataModelElement,
		"cmi.objectives.0":                   domain.UndefinedDataModelElement,
		"cmi.objectives.0.unknown":           domain.UndefinedDataModelElement,
		"cmi.core.lesson_status":             domain.UndefinedDataModelElement,
		"adl.data.0.id":                      domain.UnimplementedDataModelElement,
		"cmi.interactions.0.objectives.0.id": domain.UnimplementedDataModelElement,
	} {
		_, err := reg.Lookup(name)
		assert.Equal(t, want, cmi.CodeOf(err), name)
	}
}

func TestRegistry_Children(t *testing.T) {
	s := cmi.NewStore(cmi.DefaultRegistry(), nil)
	got, err := s.Read("cmi.comments_from_learner._children")
	require.NoError(t, err)
	assert.Equal(t, "comment,location,timestamp", got)
}

func TestRegistry_CustomElement(t *testing.T) {
	reg := cmi.NewRegistry().Define(&cmi.Element{Name: "ext.flag", Default: "off", Validate: cmi.Enum("on", "off")})
	s := cmi.NewStore(reg, nil)

	v, err := s.Read("ext.flag")
	require.NoError(t, err)
	assert.Equal(t, "off", v)
	assert.NoError(t, s.Write("ext.flag", "on"))
	assert.Len(t, reg.Elements(), 1)
}

func TestRegistry_CheckSeed(t *testing.T) {
	reg := cmi.DefaultRegistry()
	assert.NoError(t, reg.CheckSeed(map[string]string{
		"cmi.learner_id":   "u-1",
		"cmi.learner_name": "Ada",
		"cmi.mode":         "review",
		"cmi.entry":        "resume",
	}))

	err := reg.CheckSeed(map[string]string{
		"cmi.mode":     "fast",
		"cmi.nope":     "x",
		"cmi._version": "9",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "seed cmi.mode")
	assert.Contains(t, err.Error(), "seed cmi.nope")
	assert.Contains(t, err.Error(), "seed cmi._version")
}

func TestRegistry_Describe(t *testing.T) {
	infos := cmi.DefaultRegistry().Describe()
	byName := make(map[string]cmi.ElementInfo, len(infos))
	for _, info := range infos {
		byName[info.Name] = info
	}

	assert.Equal(t, "write-only", byName["cmi.exit"].Access)
	assert.Equal(t, "read-only", byName["cmi.total_time"].Access)
	assert.Equal(t, "PT0H0M0S", byName["cmi.total_time"].Default)
	assert.Equal(t, "unknown", byName["cmi.objectives.n.success_status"].Default)
	assert.Equal(t, "read-only", byName["cmi.comments_from_lms.n.comment"].Access)
	assert.True(t, byName["cmi.interactions._count"].Keyword)
	assert.Empty(t, byName["cmi.learner_id"].Default, "host seeded elements have no default")
}
