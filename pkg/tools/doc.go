// Package tools is the catalogue of operations an agent host can call: the
// guide tools (start, continue, status, cancel per guide) and the simulated
// clinic tools used during triage.
//
// The MCP adapter and the LLM agent both expose this catalogue, so a tool
// behaves the same whichever way it is reached.
package tools
