// Command lichtwerkd publishes the job store over HTTP so that several
// lichtwerk clients can share one authoritative backend.
package main
