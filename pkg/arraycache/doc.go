// Package arraycache layers application-tuned caching over array stores.
//
// Writers stage appends in a fixed-capacity array and hand whole stages to
// the underlying store writer, so bulk appends cost one copy per stage.
// Readers keep a sliding window of decoded elements: a miss performs one bulk
// read starting at the requested index, which turns a forward scan over N
// elements into at most ceil(N / WindowSize) store reads.
//
// All sizing, the window memory budget and metrics live on an explicitly
// constructed Service. There is no package-level cache state; two services
// never share windows.
package arraycache
