/*
Package observability provides lifecycle hooks for monitoring guide sessions.

It includes Prometheus metrics, structured logging of transitions, and a
StreamManager that fans transition events out to live subscribers (SSE).
All of them produce domain.LifecycleHooks that can be combined with Merge.
*/
package observability
