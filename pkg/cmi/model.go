package cmi

import "sync"

// Vocabularies of the SCORM 2004 data model.
var (
	// "not_attempted" is accepted alongside the ADL spelling "not attempted".
	CompletionStatuses = []string{"completed", "incomplete", "not_attempted", "not attempted", "unknown"}
	SuccessStatuses    = []string{"passed", "failed", "unknown"}
	ExitValues         = []string{"time-out", "suspend", "logout", "normal", ""}
	Modes              = []string{"normal", "browse", "review"}
	Credits            = []string{"credit", "no-credit"}
	Entries            = []string{"ab-initio", "resume", ""}
	TimeLimitActions   = []string{"exit,message", "exit,no message", "continue,message", "continue,no message"}
	InteractionTypes   = []string{
		"true-false", "choice", "fill-in", "long-fill-in", "matching",
		"performance", "sequencing", "likert", "numeric", "other",
	}
	InteractionResults = []string{"correct", "incorrect", "unanticipated", "neutral"}
)

// Version is reported by cmi._version.
const Version = "1.0"

var defaultRegistry = sync.OnceValue(buildDefaultRegistry)

// DefaultRegistry returns the SCORM 2004 4th edition data model shared by all sessions.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

func buildDefaultRegistry() *Registry {
	r := NewRegistry()

	r.Define(keyword("cmi._version", Version, "Version of the data model"))

	// Status and scoring
	r.Define(&Element{Name: "cmi.completion_status", Default: "incomplete", Validate: Enum(CompletionStatuses...),
		Doc: "Whether the learner has completed the SCO"})
	r.Define(&Element{Name: "cmi.success_status", Default: "unknown", Validate: Enum(SuccessStatuses...),
		Doc: "Whether the learner has mastered the SCO"})
	r.Define(keyword("cmi.score._children", "scaled,raw,min,max", "Fields of cmi.score"))
	r.Define(&Element{Name: "cmi.score.scaled", Validate: DecimalRange(-1, 1), Doc: "Scaled score in [-1, 1]"})
	r.Define(&Element{Name: "cmi.score.raw", Validate: Decimal(), Doc: "Raw score"})
	r.Define(&Element{Name: "cmi.score.min", Default: "0", Validate: Decimal(), Doc: "Minimum raw score"})
	r.Define(&Element{Name: "cmi.score.max", Default: "100", Validate: Decimal(), Doc: "Maximum raw score"})
	r.Define(&Element{Name: "cmi.progress_measure", Validate: DecimalRange(0, 1), Doc: "Progress towards completion in [0, 1]"})

	// Time
	r.Define(&Element{Name: "cmi.session_time", Default: "PT0H0M0S", Validate: TimeInterval(),
		Doc: "Time spent in the current session"})
	r.Define(&Element{Name: "cmi.total_time", Access: ReadOnly, Default: "PT0H0M0S", Validate: TimeInterval(),
		Doc: "Accumulated time of all sessions of the attempt"})
	r.Define(&Element{Name: "cmi.max_time_allowed", Access: ReadOnly, Validate: TimeInterval(),
		Doc: "Time the learner may spend in the attempt"})
	r.Define(&Element{Name: "cmi.time_limit_action", Access: ReadOnly, Default: "continue,no message",
		Validate: Enum(TimeLimitActions...), Doc: "What the SCO does when max_time_allowed is exceeded"})

	// Session context
	r.Define(&Element{Name: "cmi.exit", Access: WriteOnly, Validate: Enum(ExitValues...),
		Doc: "How the learner is leaving the SCO"})
	r.Define(&Element{Name: "cmi.entry", Access: ReadOnly, Default: "ab-initio", Validate: Enum(Entries...),
		Doc: "Whether this is the first session of the attempt"})
	r.Define(&Element{Name: "cmi.mode", Access: ReadOnly, Default: "normal", Validate: Enum(Modes...),
		Doc: "Presentation mode"})
	r.Define(&Element{Name: "cmi.credit", Access: ReadOnly, Default: "credit", Validate: Enum(Credits...),
		Doc: "Whether the attempt counts for credit"})
	r.Define(&Element{Name: "cmi.location", Validate: CharString(SPMLocation), Doc: "Bookmark inside the SCO"})
	r.Define(&Element{Name: "cmi.suspend_data", Validate: CharString(SPMSuspendData),
		Doc: "Opaque state the SCO saves between sessions"})
	r.Define(&Element{Name: "cmi.launch_data", Access: ReadOnly, Validate: CharString(SPMLaunchData),
		Doc: "Initialization data from the manifest"})
	r.Define(&Element{Name: "cmi.scaled_passing_score", Access: ReadOnly, Validate: DecimalRange(-1, 1),
		Doc: "Scaled score required to pass"})
	r.Define(&Element{Name: "cmi.completion_threshold", Access: ReadOnly, Validate: DecimalRange(0, 1),
		Doc: "Progress measure considered complete"})

	// Learner
	r.Define(&Element{Name: "cmi.learner_id", Access: ReadOnly, Validate: Identifier(SPMIdentifier),
		Doc: "Identifier of the learner"})
	r.Define(&Element{Name: "cmi.learner_name", Access: ReadOnly, Validate: LocalizedString(SPMLearnerName),
		Doc: "Name of the learner"})
	r.Define(keyword("cmi.learner_preference._children", "audio_level,language,delivery_speed,audio_captioning",
		"Fields of cmi.learner_preference"))
	r.Define(&Element{Name: "cmi.learner_preference.audio_level", Default: "1", Validate: DecimalMin(0),
		Doc: "Preferred audio level"})
	r.Define(&Element{Name: "cmi.learner_preference.language", Validate: Language(),
		Doc: "Preferred language"})
	r.Define(&Element{Name: "cmi.learner_preference.delivery_speed", Default: "1", Validate: DecimalMin(0),
		Doc: "Preferred delivery speed"})
	r.Define(&Element{Name: "cmi.learner_preference.audio_captioning", Default: "0", Validate: Enum("-1", "0", "1"),
		Doc: "Preferred captioning"})

	r.DefineCollection(objectives())
	r.DefineCollection(interactions())
	r.DefineCollection(comments("cmi.comments_from_learner", ReadWrite))
	r.DefineCollection(comments("cmi.comments_from_lms", ReadOnly))

	r.Unimplemented("adl.")
	return r
}

func member(name string, access Access, v Validator) *Element {
	return &Element{Name: name, Access: access, Uninitialized: true, Validate: v}
}

func objectives() *Collection {
	return &Collection{
		Name:     "cmi.objectives",
		Children: "id,score,success_status,completion_status,progress_measure,description",
		IDField:  "id",
		UniqueID: true,
		Fields: map[string]*Element{
			"id":                member("id", ReadWrite, Identifier(SPMIdentifier)),
			"score._children":   keyword("score._children", "scaled,raw,min,max", "Fields of the objective score"),
			"score.scaled":      member("score.scaled", ReadWrite, DecimalRange(-1, 1)),
			"score.raw":         member("score.raw", ReadWrite, Decimal()),
			"score.min":         member("score.min", ReadWrite, Decimal()),
			"score.max":         member("score.max", ReadWrite, Decimal()),
			"success_status":    {Name: "success_status", Default: "unknown", Validate: Enum(SuccessStatuses...)},
			"completion_status": {Name: "completion_status", Default: "unknown", Validate: Enum(CompletionStatuses...)},
			"progress_measure":  member("progress_measure", ReadWrite, DecimalRange(0, 1)),
			"description":       member("description", ReadWrite, LocalizedString(SPMDescription)),
		},
	}
}

func interactions() *Collection {
	return &Collection{
		Name:     "cmi.interactions",
		Children: "id,type,objectives,timestamp,correct_responses,weighting,learner_response,result,latency,description",
		IDField:  "id",
		Fields: map[string]*Element{
			"id":               member("id", ReadWrite, Identifier(SPMIdentifier)),
			"type":             member("type", ReadWrite, Enum(InteractionTypes...)),
			"timestamp":        member("timestamp", ReadWrite, Timestamp()),
			"weighting":        member("weighting", ReadWrite, Decimal()),
			"learner_response": withDependency(member("learner_response", ReadWrite, CharString(SPMLearnerResp)), "type"),
			"result":           member("result", ReadWrite, OneOf(Enum(InteractionResults...), Decimal())),
			"latency":          member("latency", ReadWrite, TimeInterval()),
			"description":      member("description", ReadWrite, LocalizedString(SPMDescription)),
		},
		Unimplemented: []string{"objectives", "correct_responses"},
	}
}

func comments(name string, access Access) *Collection {
	c := &Collection{
		Name:     name,
		Access:   access,
		Children: "comment,location,timestamp",
		Fields: map[string]*Element{
			"comment":   member("comment", access, LocalizedString(SPMComment)),
			"location":  member("location", access, CharString(SPMCommentOrigin)),
			"timestamp": member("timestamp", access, Timestamp()),
		},
	}
	return c
}

func withDependency(e *Element, field string) *Element {
	e.DependsOn = field
	return e
}
