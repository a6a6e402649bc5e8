// Package shutdown provides graceful shutdown for respkv.
//
// Components register cleanup hooks with OnShutdown. On SIGINT, SIGTERM
// or context cancellation the hooks run in reverse registration order
// under a shared timeout, so the last component started is the first
// stopped.
package shutdown
