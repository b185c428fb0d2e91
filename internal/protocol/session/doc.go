// Package session owns connection-level settings for the framed IPC transport.
//
// Ownership boundary:
// - dial/handshake/read/write timeouts
// - security mode and TLS material
// - client and server tls.Config builders
package session
