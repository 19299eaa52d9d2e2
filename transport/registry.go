package transport

import (
	"fmt"

	"github.com/binarywire/bwcodec/bitstream"
)

// DecodeFunc is the type-erased shape every generated Decode<Name>
// function is wrapped into before registration — the registry itself
// never names a generated type, which is what lets it live in a package
// with no dependency on generated code.
type DecodeFunc func(r *bitstream.Decoder) (any, error)

// HandlerFunc processes one successfully decoded message.
type HandlerFunc func(msg any, c *Conn) error

type registration struct {
	decode  DecodeFunc
	handler HandlerFunc
}

// Registry maps a wire message-type tag to the decode/handler pair that
// processes it.
type Registry struct {
	entries map[uint32]registration
}

// Register binds msgType to decode and handler. A nil handler is legal —
// dispatch then discards the payload without decoding it, mirroring the
// teacher's "ignore schemas with no handler" behavior.
func (r *Registry) Register(msgType uint32, decode DecodeFunc, handler HandlerFunc) {
	if r.entries == nil {
		r.entries = make(map[uint32]registration)
	}
	r.entries[msgType] = registration{decode: decode, handler: handler}
}

func (r *Registry) lookup(msgType uint32) (registration, bool) {
	reg, ok := r.entries[msgType]
	return reg, ok
}

func (r *Registry) dispatch(msgType uint32, payload []byte, bitOrder bitstream.BitOrder, c *Conn) error {
	reg, ok := r.lookup(msgType)
	if !ok {
		return fmt.Errorf("%w: 0x%x", ErrUnknownMessage, msgType)
	}
	if reg.handler == nil {
		return nil
	}
	dec := bitstream.NewDecoder(payload, bitOrder)
	msg, err := reg.decode(dec)
	if err != nil {
		return fmt.Errorf("decode message 0x%x: %w", msgType, err)
	}
	return reg.handler(msg, c)
}
