/*
Package ports defines the driven ports (interfaces) for the toolguide runtime.

These interfaces decouple the guide state machines from external implementations,
allowing sessions to live in memory, on disk, in Redis or in SQLite.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading guide sessions.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
