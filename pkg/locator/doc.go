// Package locator builds record indexes over delimited text files.
//
// A Builder scans its source once. For every data record it appends the
// record's byte range to a range index and widens the inferred type of each
// column to fit the record's fields. The index is written next to its final
// path with a ".partial" suffix and renamed into place only after it has been
// committed, so an index path never names an incomplete store.
//
// Builds are cancelable. Cancellation is polled before each record, either
// through the ProgressSink or through the context, and ends the build with
// ErrCanceled. Start runs a build on its own goroutine and returns a Job for
// observing and stopping it.
package locator
