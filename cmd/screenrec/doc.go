// Package main hosts the screenrec CLI entrypoint and command graph.
//
// The Cobra-based command tree resolves configuration, builds the capture
// mechanisms for the configured platform, and exposes probing, recording,
// history, preflight, and device listing. Recording logic lives in the
// internal packages; commands here only wire them together and render output.
package main
