// Package history persists a ledger of recording sessions in SQLite.
//
// Every capture gets a row when it begins and is finished with its outcome:
// completed with the artifact size, failed with the error, or interrupted
// when a previous process died mid-recording. The database lives in the
// state directory and carries a schema version; a mismatched version is
// reported instead of migrated.
package history
