// Package preflight provides readiness checks for the directories, external
// binaries, and device a recording depends on.
//
// The CLI "screenrec preflight" command prints every check; "screenrec record"
// runs RunAll first and refuses to start when a required check fails, so a
// missing adb or an unwritable recordings directory is reported before any
// capture begins.
package preflight
