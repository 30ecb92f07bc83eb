// Package apiconnect wires the api messages to Connect handlers and clients.
// Each service mounts under /zapsplit.v1.<Service>/ and speaks the Connect
// protocol with JSON bodies.
package apiconnect
