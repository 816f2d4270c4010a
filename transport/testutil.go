package transport

import "net"

// Pipe returns a Stream backed by one end of an in-memory net.Pipe, plus
// the raw net.Conn for the other end. Tests use the raw end to play a
// scripted device/broker and the Stream end exactly as production code
// would use a real connection.
func Pipe() (Stream, net.Conn) {
	client, server := net.Pipe()
	return Wrap(client), server
}
