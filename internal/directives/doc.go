// Package directives collects the editing instructions for a job.
//
// The Compiler holds live, mutable selections (style, window treatment, sky
// treatment, retouch flags, notes) until the lock gate asks for an immutable
// snapshot through Compile. Enabling a retouch flag returns a cost advisory
// formatted with golang.org/x/text; advisories never block the workflow.
package directives
