// Package state persists the build snapshot seen by the most recent
// successful update check, together with the daemon's own preferences.
//
// Two snapshot backends exist: a JSON file written atomically (the default)
// and a SQLite database. Both distinguish an absent snapshot, which is the
// normal first-run case and loads as an empty list, from an unreadable or
// corrupt one, which is a storage error.
package state
