package transport

import (
	"encoding/binary"
	"io"
	"net"
)

// ProtocolHeader is the fixed 8-byte frame header: a little-endian packet
// length followed by a little-endian message-type tag.
type ProtocolHeader struct {
	PacketLength uint32
	MessageType  uint32
}

var nullHeader = ProtocolHeader{}

// Conn wraps one accepted connection and its handshake state.
type Conn struct {
	server *Server
	conn   net.Conn
	state  ConnState
}

func (c *Conn) readHeader() (ProtocolHeader, error) {
	var raw [8]byte
	if _, err := io.ReadFull(c.conn, raw[:]); err != nil {
		return nullHeader, err
	}
	return ProtocolHeader{
		PacketLength: binary.LittleEndian.Uint32(raw[:4]),
		MessageType:  binary.LittleEndian.Uint32(raw[4:]),
	}, nil
}

func (c *Conn) readPayload(n uint32) ([]byte, error) {
	payload := make([]byte, n)
	if _, err := io.ReadFull(c.conn, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// nextMessage reads and dispatches exactly one framed message.
func (c *Conn) nextMessage() error {
	header, err := c.readHeader()
	if err != nil {
		return err
	}

	if header.PacketLength > c.server.MaxMessageSize {
		switch c.server.MessageOverflowPolicy {
		case MessageOverflowDiscard:
			_, err := io.CopyN(io.Discard, c.conn, int64(header.PacketLength))
			return err
		case MessageOverflowTerminate:
			return ErrMsgLength
		}
	}

	payload, err := c.readPayload(header.PacketLength)
	if err != nil {
		return err
	}

	if c.state == ConnWaitHello {
		c.state = ConnEstablished
	}

	return c.server.Registry.dispatch(header.MessageType, payload, c.server.BitOrder, c)
}
