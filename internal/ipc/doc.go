// Package ipc holds the typed bindings for the account endpoints: the wire
// types, the Client call stubs and the Dispatcher that serves them.
//
// bindings.gen.go is generated from ipc.toml; edit the schema, not the output.
package ipc

//go:generate go run ../../cmd/ipcgen --schema ipc.toml --out bindings.gen.go
