// Package retry provides the waiting primitives shared by every provisioning step.
//
// [Await] polls a check at a fixed interval until it reports done, a deadline
// passes, or the check fails terminally. Errors marked with [Fatal] are terminal;
// anything else is treated as transient and absorbed up to a bounded count.
//
// [Backoff] retries a single operation with exponentially growing delays. It is
// used where there is no status to poll, such as a DNS upsert.
package retry
