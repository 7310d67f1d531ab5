// Package errors provides the classified error type shared by the updater.
//
// Every failure the discovery engine can surface maps to one category:
//   - network: connectivity, timeouts, oversized responses (retryable)
//   - no_content: the server answered with a status other than 200
//   - cancelled: the check was aborted through Cancel
//   - parse: the feed payload is not a decodable JSON object
//   - validation: a single feed entry is malformed (recovered by skipping it)
//   - storage: persisted snapshot cannot be read or written
//   - in_progress: a check is already running
//
// Example usage:
//
//	err := errors.NetworkError("query failed").
//		WithCause(cause).
//		WithContext("url", queryURL).
//		Build()
package errors
