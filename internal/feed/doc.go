// Package feed builds update-server queries and parses their responses into
// build descriptors.
//
// Two response dialects are supported: "eos", whose body carries a result
// marker and nests the file list under data, and "legacy", which has no result
// marker and may place the file list at the top level. Both are pure: Query
// and Parse depend only on the Config they were built from.
package feed
