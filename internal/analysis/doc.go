// Package analysis talks to an OpenAI-compatible chat completions API to
// break scenes and whole scripts down into production metadata.
//
// Client handles transport: request encoding, bounded retries on
// throttling and server errors, and extraction of the message content.
// Analyzer builds on it. Per-scene analysis never fails loudly: any problem
// is logged and reported as "no analysis". Whole-script parsing is
// all-or-nothing and returns a *ParseError describing what went wrong.
package analysis
