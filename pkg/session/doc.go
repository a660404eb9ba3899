/*
Package session implements session access orchestration for guides.

A Manager serializes every read-modify-write on a session ID, first with a
process-local reference-counted mutex and, when configured, with a
DistributedLocker so that several replicas can share one store.
*/
package session
