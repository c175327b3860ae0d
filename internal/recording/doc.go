// Package recording defines the uniform contract over device screen-capture
// mechanisms.
//
// A Recorder probes whether its mechanism can run, starts a capture as a
// detached Task, and stops it once the caller is done. Availability and State
// are closed unions: switch over their concrete types (Available/Unavailable,
// Stopped/Running) rather than inspecting fields.
//
// The mechanisms themselves live in subpackages: screenrecord drives the
// Android on-device command through a device driver, and scrcpy supervises the
// desktop scrcpy process. Select picks the first available one.
package recording
