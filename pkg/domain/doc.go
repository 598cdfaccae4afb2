/*
Package domain contains the core domain models of the SCORM 2004 Run-Time Environment.

It defines the lifecycle of an RTE session, the SCORM error code family, the snapshot
handed to host persistence hooks and the attempt records kept by stores. This package is
kept pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - State: Lifecycle of one session (NotInitialized, Running, Terminated).
  - ErrorCode: The numeric outcome recorded by every data-affecting API call.
  - Snapshot: Element name to string value mapping delivered to Commit/Terminate hooks.
  - Hooks: Host callbacks invoked synchronously by the engine.
  - Attempt: The persisted record of a learner's registration on one SCO.
*/
package domain
