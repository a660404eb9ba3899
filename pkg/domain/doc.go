/*
Package domain contains the core domain models of the toolguide runtime.

A guide is a small, explicit finite-state machine that walks a session through an
ordered protocol. The calling agent never decides what comes next: it relays the
guide's instruction payload (Response) and reports back what the user said or
what its tools found (Input). This package is kept free of I/O and persistence.

# Key Entities

  - Guide: The protocol definition (states, declared transitions, step handlers).
  - Session: The runtime snapshot of one walk through a guide (state, data, audit trail).
  - Input: What the agent reports back (free text or a structured report).
  - Response: The instruction payload returned to the agent after every step.
*/
package domain
