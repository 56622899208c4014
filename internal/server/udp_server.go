package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mstock/relaydns/internal/dns"
	"github.com/mstock/relaydns/internal/pool"
)

// bufferPool recycles receive buffers for incoming datagrams, each sized to
// the maximum UDP DNS message.
var bufferPool = pool.NewBuffer(dns.MaxDatagramSize)

// UDPServer relays DNS queries over UDP.
//
// Features:
//   - Buffer pooling to reduce GC pressure under load
//   - Semaphore-based concurrency limiting
//   - Pre-parse rate limiting per source IP
//   - Optional SO_REUSEPORT bind for multi-process scaling
//   - Graceful shutdown with timeout
type UDPServer struct {
	Logger         *slog.Logger  // Optional logger
	Handler        *QueryHandler // Query processor
	Limiter        *RateLimiter  // Optional per-IP rate limiter
	MaxConcurrency int           // Maximum concurrent request handlers
	ReusePort      bool          // Bind with SO_REUSEPORT

	conn *net.UDPConn   // The UDP socket
	wg   sync.WaitGroup // Tracks in-flight requests
	sem  chan struct{}  // Concurrency semaphore
}

// Run starts the UDP server, listening on the given address.
func (s *UDPServer) Run(ctx context.Context, addr string) error {
	conn, err := s.listen(ctx, addr)
	if err != nil {
		return err
	}
	return s.RunOnConn(ctx, conn)
}

func (s *UDPServer) listen(ctx context.Context, addr string) (*net.UDPConn, error) {
	if s.ReusePort {
		return listenUDPReusePort(ctx, addr)
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	return net.ListenUDP("udp", udpAddr)
}

// RunOnConn runs the server on an existing UDP connection.
// This is useful for testing and when the caller manages the socket.
//
// Request processing flow:
//  1. Read a datagram (with 1s timeout for shutdown checks)
//  2. Apply rate limiting (drop if exceeded)
//  3. Acquire semaphore slot (drop if at max concurrency)
//  4. Relay in a goroutine and send the response back
func (s *UDPServer) RunOnConn(ctx context.Context, conn *net.UDPConn) error {
	s.conn = conn
	defer conn.Close()

	maxConc := s.MaxConcurrency
	if maxConc <= 0 {
		maxConc = 1
	}
	s.sem = make(chan struct{}, maxConc)

	for ctx.Err() == nil {
		packet, remote, err := s.receivePacket(conn)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				// Stop closed the socket; stop accepting without waiting
				// for the context to be canceled.
				return nil
			}
			continue // read timeout; the loop re-checks ctx
		}

		if s.Limiter != nil && !s.Limiter.Allow(remote.IP.String()) {
			if s.Handler != nil && s.Handler.Stats != nil {
				s.Handler.Stats.RecordRateLimited()
			}
			continue
		}

		// At max concurrency the datagram is dropped; the client retries.
		if !s.tryAcquireSemaphore() {
			continue
		}

		s.wg.Add(1)
		go s.handleRequest(ctx, conn, packet, remote)
	}

	return nil
}

// receivePacket reads a UDP packet using a pooled buffer.
// Returns the packet data and source address, or the read error.
func (s *UDPServer) receivePacket(conn *net.UDPConn) ([]byte, *net.UDPAddr, error) {
	bufPtr := bufferPool.Get()
	buf := *bufPtr
	defer bufferPool.Put(bufPtr)

	_ = conn.SetReadDeadline(time.Now().Add(1 * time.Second))
	n, remote, err := conn.ReadFromUDP(buf)
	if err != nil {
		return nil, nil, err
	}
	if remote == nil {
		return nil, nil, errors.New("udp server: read without source address")
	}

	// Copy out of the pooled buffer, cut to the received length. Trailing
	// pool bytes never reach the parser.
	data := make([]byte, n)
	copy(data, buf[:n])
	return data, remote, nil
}

// tryAcquireSemaphore attempts to acquire a concurrency slot.
// Returns false if the server is at maximum concurrency.
func (s *UDPServer) tryAcquireSemaphore() bool {
	select {
	case s.sem <- struct{}{}:
		return true
	default:
		return false
	}
}

// handleRequest relays a single DNS request.
func (s *UDPServer) handleRequest(ctx context.Context, conn *net.UDPConn, payload []byte, peer *net.UDPAddr) {
	defer s.wg.Done()
	defer func() { <-s.sem }()

	if s.Handler == nil {
		return
	}

	res := s.Handler.Handle(ctx, peer.String(), payload)
	if len(res.ResponseBytes) == 0 {
		return
	}
	_, _ = conn.WriteToUDP(res.ResponseBytes, peer)
}

// Stop gracefully shuts down the UDP server.
// Waits up to the specified timeout for in-flight requests to complete.
// Returns an error if the timeout is exceeded.
func (s *UDPServer) Stop(timeout time.Duration) error {
	if s.conn == nil {
		return nil
	}
	_ = s.conn.Close()

	if timeout <= 0 {
		s.wg.Wait()
		return nil
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errors.New("udp server: timeout waiting for in-flight requests")
	}
}

// listenUDPReusePort binds a UDP socket with SO_REUSEPORT enabled, letting
// multiple relay processes share one address with the kernel spreading
// datagrams across them.
func listenUDPReusePort(ctx context.Context, addr string) (*net.UDPConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			return c.Control(func(fd uintptr) {
				_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
			})
		},
	}
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, err
	}
	udp, ok := pc.(*net.UDPConn)
	if !ok {
		pc.Close()
		return nil, errors.New("udp server: listener is not a UDP socket")
	}
	return udp, nil
}
