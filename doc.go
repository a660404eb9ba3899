/*
Package toolguide drives AI agents through deterministic protocols ("guides").

A guide is a small, explicit state machine. The agent never decides what comes
next: it starts a session, relays the instruction payload the guide returns, and
reports back what the user said or what its tools found. The guide validates the
report, records the step in the session's audit trail and answers with the next
instruction. Expected protocol failures (unknown session, unrecognized answer,
invalid report) come back as payloads, never as Go errors.

Two guides ship with the module: a pizza ordering chat flow (free-text answers)
and an emergency department triage flow (structured reports from an autonomous
agent).

# Usage

	eng, err := toolguide.New()
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	resp, err := eng.Start(ctx, "pizza")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(resp.Prompt)

	resp, err = eng.Continue(ctx, "pizza", resp.SessionID, domain.TextInput("Thin crust"))

Sessions live in memory by default. Use WithStore to persist them in a file,
Redis or SQLite store, and WithLocker to serialize steps across processes.
The same engine can be served over MCP (pkg/adapters/mcp), REST
(pkg/adapters/http) or an interactive terminal loop (pkg/runner).
*/
package toolguide
