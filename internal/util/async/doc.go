// Package async runs independent lookups concurrently.
//
// [RunParallel] is used by the provider adapters to issue their read-only
// validation queries at once instead of one after another.
package async
