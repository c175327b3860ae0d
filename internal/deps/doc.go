// Package deps resolves the external executables screenrec drives.
//
// Locator implements the override-then-PATH lookup used for optional capture
// binaries such as scrcpy, and CheckBinaries turns a list of requirements into
// availability reports for preflight output.
package deps
