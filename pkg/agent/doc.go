/*
Package agent contains autonomous triage agents that drive the triage guide
through the shared tool catalogue.

  - Scripted: a deterministic agent that plays a scripted interview scenario.
    It performs whatever task the guide hands out, calls the clinic tools and
    reports back, which makes the guide's control of the flow visible.
  - LLM: an agent backed by an OpenAI-compatible chat completions API. The
    model sees the guide and clinic tools and decides which to call; the guide
    still decides what happens next.

Both record a Transcript of every tool call.
*/
package agent
