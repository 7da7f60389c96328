// Package ipc lets a second reright invocation query or cancel the rewrite
// that currently owns the runtime socket.
package ipc

// Commands understood by the socket owner.
const (
	CommandStatus = "status"
	CommandCancel = "cancel"
)

type Request struct {
	Command string `json:"command"`
}

type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Rewrite string `json:"rewrite,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
