// Package pointdb ties together flash, segment, alloc, recovery, and
// ring into an append-only time-series log: a single producer writes samples into an SPSC ring; a single
// flusher drains the ring into 4 KB flash segments using a header-last
// atomic commit; and a forward-only recovery scanner lets a reader find
// the latest sample for a metric across every committed segment after
// a restart, without ever trusting an in-flight (uncommitted) segment.
package pointdb
