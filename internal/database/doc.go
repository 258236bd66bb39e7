// Package database performs the lifecycle operations on the target
// PostgreSQL database of odoo-test: drop, create, restore, dump, and the
// bookkeeping of dump artifacts on disk.
//
// Each operation is a single PostgreSQL client command run through an
// execx.Runner. A failing command is reported to the notification sink and
// returned, so the calling workflow aborts.
//
// Dump artifacts live under <dumpRoot>/<databaseName>/<name>. The directory
// is created the first time it is needed.
//
// Mirror copies artifacts to and from an S3-compatible bucket under the
// prefix <databaseName>/.
package database
