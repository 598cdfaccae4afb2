package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/scorm"
	"github.com/aretw0/scorm/pkg/script"
	"github.com/aretw0/scorm/pkg/session"
)

// ScriptLearner is the learner a script session runs as unless its seed sets cmi.learner_id.
const ScriptLearner = "script"

// RunScript plays s against a fresh session of rt. The attempt is persisted
// through the configured store like any other launch, keyed by registration
// (or "<learner>-<name>" when empty). The session is closed afterwards.
func RunScript(ctx context.Context, rt *Runtime, s *script.Script, registration string) (*script.Transcript, error) {
	learner := ScriptLearner
	if id := s.Seed["cmi.learner_id"]; id != "" {
		learner = id
	}
	info, err := rt.Manager.Launch(ctx, session.LaunchRequest{
		LearnerID:      learner,
		ScoID:          s.Name,
		RegistrationID: registration,
		Seed:           s.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("launch failed: %w", err)
	}
	defer func() {
		if err := rt.Manager.Close(context.Background(), info.SessionID); err != nil {
			rt.Logger.Warn("failed to close script session", "session_id", info.SessionID, "err", err)
		}
	}()

	var transcript *script.Transcript
	err = rt.Manager.Call(ctx, info.SessionID, func(api *scorm.API) error {
		transcript = script.Run(api, s)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("script %q: %w", s.Name, err)
	}
	rt.Logger.Debug("script finished",
		"script", s.Name,
		"registration_id", info.RegistrationID,
		"calls", len(transcript.Entries),
		"failed", transcript.Failed(),
	)
	return transcript, nil
}
