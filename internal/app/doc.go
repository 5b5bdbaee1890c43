// Package app contains the core application logic of eonc. It defines the App
// struct, its validated configuration and one method per command, decoupled
// from the command-line entrypoint.
package app
