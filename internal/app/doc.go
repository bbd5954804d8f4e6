// Package app wires application dependencies for the CLI.
//
// It builds the file stores, the relay client and the key, identity and
// session services from Config, exposing them via the Wire struct for
// commands to use.
package app
