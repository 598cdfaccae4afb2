/*
Package ports defines the driven ports (interfaces) of the SCORM runtime host.

These interfaces decouple session management from concrete backends, so the
same Manager can persist to memory, files, SQLite or Redis.

# Key Interfaces

  - AttemptStore: persists and loads learner attempts by registration ID.
  - DistributedLocker: serializes access to a session across replicas.

RunAttemptStoreContract is a reusable test suite every AttemptStore adapter runs.
*/
package ports
