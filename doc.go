/*
Package scorm is a SCORM 2004 Run-Time Environment: the API object that learning
content (a SCO) calls to report progress, scores and bookmarks to its host.

It implements the eight RTE methods over a typed CMI data model, keeping the
content side of the contract strict (every call returns a string and records an
error code) while the host side stays idiomatic Go (options, hooks, errors).

# Concept

An API instance moves through three states: NotInitialized, Running and
Terminated. Data can only be read or written while Running. Every call
records an error code, which the content reads back with GetLastError.

Persistence is the host's job. Commit and Terminate hand a snapshot of the
data store to the hooks registered with WithHooks. A failing or panicking hook
is logged and reported to OnHookError, but the content always sees "true".

# Usage

	api := scorm.New(
		scorm.WithSeed(map[string]string{
			"cmi.learner_id":   "learner-42",
			"cmi.learner_name": "Doe, Jane",
		}),
		scorm.WithHooks(domain.Hooks{
			OnCommit: func(s domain.Snapshot) error {
				return store.Save(ctx, attemptFrom(s))
			},
		}),
	)

	api.Initialize("")
	api.SetValue("cmi.location", "page-3")
	api.Commit("")
	api.Terminate("")

Hosts serving many learners use pkg/session, which keys API instances by
session ID, resumes suspended attempts and serializes concurrent calls.
The HTTP and MCP adapters under pkg/adapters expose a Manager over the network.
*/
package scorm
