/*
Package runner implements the interactive loop that walks a user (or a piped
agent) through a guide.

It acts as the bridge between the guide engine and the outside world: the
Runner starts a session, shows each instruction through a pluggable IOHandler,
sanitizes what comes back and feeds it to the engine until the session ends.

# Key Components

  - Runner: The loop. Input that ends early cancels the session.
  - IOHandler: Decouples how the runner talks to the user (text, JSON lines).
  - SanitizeInput / SanitizeReport: the global input policy (size limit, UTF-8, control characters).

# Usage

	r := runner.NewRunner(
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	final, err := r.Run(ctx, engine, "pizza")
*/
package runner
