// Package scrcpy records an Android device screen by supervising a local
// scrcpy process.
//
// Start launches scrcpy with playback disabled and recording into the
// destination MP4, forwards its stderr while watching for the line that
// confirms recording began, and hands the process to a supervisor goroutine.
// The supervisor reacts to whichever comes first: the process exiting or a
// stop request. A stop sends SIGTERM so scrcpy can finalize the file; an exit
// nobody asked for fails the task with ErrUnexpectedExit.
//
// The binary is resolved on every Start and Probe, honouring the
// MAESTRO_SCRCPY override before PATH.
package scrcpy
