// Package notify turns check results into user-facing summaries and hands
// them to publishers.
//
// A summary lists at most a handful of real updates, newest first, with a
// pluralized count of the ones left out. When exactly one real update exists
// the summary carries a download offer for it.
package notify
