/*
Package observability turns RTE call and hook events into Prometheus metrics.

Metrics.Hooks returns a domain.Hooks value that plugs into session.WithObserver
(or scorm.WithHooks for a single API instance). Combine merges several observers.
*/
package observability
