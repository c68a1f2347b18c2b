// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the load and inspect commands, decoupled
// from any specific entrypoint like a CLI or server.
package app
