/*
Package session hosts live SCORM API instances on behalf of an LMS.

A Manager launches sessions for (learner, SCO) registrations, addresses them by
session ID, serializes concurrent calls per session and persists each Commit and
Terminate as a domain.Attempt through a ports.AttemptStore. Relaunching a
registration whose attempt was suspended, or never terminated, resumes it.

With a DistributedLocker configured, the per-session lock also holds across replicas.
*/
package session
