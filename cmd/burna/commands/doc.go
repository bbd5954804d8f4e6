// Package commands defines the burna CLI and wires dependencies for subcommands.
//
// Commands
//
//   - id         Print this device's anonymous id
//   - create     Create a session and print its share link
//   - join       Join a session from a link and chat interactively
//   - send       Send one text or image message
//   - history    Print the messages still visible in a session
//   - count      Print the number of participants
//   - terminate  End a session for everyone
//
// # Implementation
//
// The root command builds the dependency graph (file stores, relay client,
// key, identity and session services) before any subcommand runs. Session
// keys stay on this device and travel between people only inside the #k=
// fragment of a share link.
package commands
