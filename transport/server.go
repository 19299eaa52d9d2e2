package transport

import (
	"errors"
	"log"
	"net"
	"time"

	"github.com/binarywire/bwcodec/bitstream"
)

// Server accepts connections and dispatches framed messages to a Registry
// of generated decode functions, following the teacher's own
// plain-struct-of-config style (server.Server).
type Server struct {
	Registry              *Registry
	Listener              net.Listener
	MessageOverflowPolicy MessageOverflowPolicy
	MaxMessageSize        uint32
	BitOrder              bitstream.BitOrder
}

// Init validates configuration, failing fast the way the teacher's own
// Server.Init does for unrecoverable construction-time misconfiguration.
func (s *Server) Init() {
	if s.MessageOverflowPolicy != MessageOverflowDiscard && s.MessageOverflowPolicy != MessageOverflowTerminate {
		log.Fatal("transport: invalid MessageOverflowPolicy (must be Discard or Terminate)")
	}
	if s.Registry == nil {
		log.Fatal("transport: Server.Registry must not be nil")
	}
}

// ListenAndServe accepts connections on network/address until the
// listener is closed.
func (s *Server) ListenAndServe(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return err
	}
	s.Listener = listener
	defer listener.Close()

	log.Print("transport: listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				break
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				log.Printf("transport: temporary accept error: %v", err)
				time.Sleep(3 * time.Second)
				continue
			}
			log.Printf("transport: permanent accept error: %v", err)
			return err
		}

		go s.HandleConnection(conn)
	}

	log.Print("transport: server shutting down")
	return nil
}

// HandleConnection services one accepted connection until it errors or
// closes.
func (s *Server) HandleConnection(netConn net.Conn) {
	log.Print("transport: connection open")
	defer netConn.Close()

	c := Conn{server: s, conn: netConn, state: ConnWaitHello}
	for {
		if err := c.nextMessage(); err != nil {
			break
		}
	}

	log.Print("transport: connection closed")
}
