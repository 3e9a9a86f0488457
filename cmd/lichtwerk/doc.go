// Command lichtwerk is the command-line front end of the order asset
// workflow. Each invocation opens an editing session for one job against the
// configured backend (the local SQLite store or a remote lichtwerkd), applies
// one operation and persists the result.
package main
