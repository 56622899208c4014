// Package resolver performs UDP round trips against upstream name servers.
//
// Two operating modes share one code path: Originate (build an A query for a
// domain and send it) and Forward (relay an already-encoded query untouched,
// whatever its type or class). Both return the decoded answer records along
// with the raw response bytes, so a DNS-serving front end can relay the wire
// form while still inspecting the parse.
//
// Blocking and context-aware forms are thin adapters over the same exchange;
// the codec in internal/dns is I/O-free, so the scheduling model can never
// change a parse result.
//
// The package does not retry, cache, or randomize transaction IDs. A send or
// receive failure surfaces immediately; retry and backoff policy belongs to
// the caller, as does ID randomization (pass WithQueryID).
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/mstock/relaydns/internal/dns"
	"github.com/mstock/relaydns/internal/pool"
)

const (
	// DefaultQueryID is the fixed sentinel transaction ID used by Originate
	// mode when the caller does not supply one.
	DefaultQueryID uint16 = 0x1001

	// DefaultTimeout bounds one send-and-receive round trip when neither an
	// option nor a context deadline says otherwise.
	DefaultTimeout = 5 * time.Second

	// UpstreamPort is the standard DNS port, appended to upstream addresses
	// that carry no port of their own.
	UpstreamPort = "53"
)

var (
	// ErrAddressResolution marks a failure to resolve the upstream address.
	// It is surfaced before any I/O is attempted.
	ErrAddressResolution = errors.New("resolver: upstream address resolution failed")

	// ErrNetwork marks a send or receive failure, timeouts included. A
	// missing response is this error, never a zero-filled parse.
	ErrNetwork = errors.New("resolver: network failure")
)

// recvBuffers recycles 512-byte receive buffers across exchanges.
var recvBuffers = pool.NewBuffer(dns.MaxDatagramSize)

type options struct {
	id      uint16
	conn    net.PacketConn
	timeout time.Duration
}

// Option customizes a single resolve or forward call.
type Option func(*options)

// WithQueryID sets the transaction ID for Originate mode. Callers that need
// poisoning-resistant randomized IDs generate one and pass it here.
func WithQueryID(id uint16) Option {
	return func(o *options) { o.id = id }
}

// WithConn reuses an existing socket instead of binding an ephemeral one.
// The caller keeps ownership: the socket is not closed after the exchange,
// and concurrent callers sharing one socket must provide their own mutual
// exclusion — an exchange assumes at most one in-flight operation per socket.
func WithConn(conn net.PacketConn) Option {
	return func(o *options) { o.conn = conn }
}

// WithTimeout bounds the round trip. A context deadline that expires sooner
// still wins.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

func applyOptions(opts []Option) options {
	o := options{id: DefaultQueryID, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// EncodeQuery builds the wire bytes of an A/IN query for domain using the
// fixed template: flags 0x0100 (standard query, recursion desired), one
// question, all other sections empty.
func EncodeQuery(domain string, id uint16) ([]byte, error) {
	m := dns.Message{
		Header: dns.Header{ID: id, Flags: dns.QueryFlags()},
		Questions: []dns.Question{
			{Name: domain, Type: dns.TypeA, Class: uint16(dns.ClassIN)},
		},
	}
	return m.Marshal()
}

// Resolve originates an A-record query for domain against upstream and
// blocks until the response arrives or the timeout elapses.
func Resolve(domain, upstream string, opts ...Option) ([]dns.Record, []byte, error) {
	return ResolveContext(context.Background(), domain, upstream, opts...)
}

// ResolveContext is Resolve honoring ctx cancellation and deadline.
func ResolveContext(ctx context.Context, domain, upstream string, opts ...Option) ([]dns.Record, []byte, error) {
	o := applyOptions(opts)
	query, err := EncodeQuery(domain, o.id)
	if err != nil {
		return nil, nil, err
	}
	return exchange(ctx, query, upstream, o)
}

// Forward relays an already-encoded query to upstream byte-for-byte and
// blocks for the response. The query's type, class and flags pass through
// untouched, so a front end can proxy queries this codec has no typed
// decoder for.
func Forward(rawQuery []byte, upstream string, opts ...Option) ([]dns.Record, []byte, error) {
	return ForwardContext(context.Background(), rawQuery, upstream, opts...)
}

// ForwardContext is Forward honoring ctx cancellation and deadline.
func ForwardContext(ctx context.Context, rawQuery []byte, upstream string, opts ...Option) ([]dns.Record, []byte, error) {
	o := applyOptions(opts)
	return exchange(ctx, rawQuery, upstream, o)
}

// exchange sends one datagram and waits for one datagram: send completes (or
// fails) strictly before receive is attempted, and there is no pipelining.
// The response buffer is truncated to the bytes actually received before
// parsing — a short datagram is never parsed as if zero-padded to 512 bytes.
func exchange(ctx context.Context, query []byte, upstream string, o options) ([]dns.Record, []byte, error) {
	addr, err := resolveUpstreamAddr(upstream)
	if err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	conn := o.conn
	if conn == nil {
		// Fresh ephemeral socket: wildcard address, OS-assigned port.
		c, err := net.ListenUDP("udp", nil)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: binding ephemeral socket: %w", ErrNetwork, err)
		}
		conn = c
		defer c.Close()
	}

	deadline := time.Now().Add(o.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	_ = conn.SetDeadline(deadline)
	// Cancellation mid-receive unblocks the socket by expiring its deadline.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if _, err := conn.WriteTo(query, addr); err != nil {
		return nil, nil, fmt.Errorf("%w: send to %s: %w", ErrNetwork, addr, err)
	}

	bufPtr := recvBuffers.Get()
	defer recvBuffers.Put(bufPtr)
	buf := *bufPtr

	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		return nil, nil, fmt.Errorf("%w: receive from %s: %w", ErrNetwork, addr, err)
	}

	raw := make([]byte, n)
	copy(raw, buf[:n])

	msg, err := dns.ParseMessage(raw)
	if err != nil {
		return nil, nil, err
	}
	return msg.Answers, raw, nil
}

// resolveUpstreamAddr resolves upstream to a UDP address, defaulting the
// port to 53 when none is given.
func resolveUpstreamAddr(upstream string) (*net.UDPAddr, error) {
	hostport := upstream
	if _, _, err := net.SplitHostPort(upstream); err != nil {
		hostport = net.JoinHostPort(upstream, UpstreamPort)
	}
	addr, err := net.ResolveUDPAddr("udp", hostport)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrAddressResolution, upstream, err)
	}
	return addr, nil
}
