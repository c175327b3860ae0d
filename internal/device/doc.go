// Package device drives Android devices through the adb command-line client.
//
// ADB implements the device-control collaborator used by the screenrecord
// mechanism: Shell runs a command on the device until it exits, PullFile
// copies a file to the host via a partial file, and Devices lists what the
// adb server can see. Commands go through an Executor so tests can replace
// the process boundary; failures carry the last lines adb printed.
package device
