// Command modelgate is the CLI entry point for the inference gateway: it
// runs the HTTP server and provides configuration, catalog, and history
// utilities.
package main
