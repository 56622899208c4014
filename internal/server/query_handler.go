// Package server implements the UDP front end that relays client queries to
// a single upstream name server.
package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mstock/relaydns/internal/dns"
	"github.com/mstock/relaydns/internal/querylog"
	"github.com/mstock/relaydns/internal/resolver"
	"github.com/mstock/relaydns/internal/stats"
)

// QueryHandler relays one raw client query to the upstream and returns the
// upstream's raw response. It understands only enough of the query to
// correlate it — transaction ID and first question — so clients may send
// any query type or class.
type QueryHandler struct {
	Logger   *slog.Logger    // Optional logger for debug output
	Upstream string          // Upstream address (HOST or HOST:PORT)
	Timeout  time.Duration   // Per-query budget (default 4s)
	Stats    *stats.Stats    // Optional statistics collector
	QueryLog *querylog.Store // Optional persistent query log
}

// HandleResult contains the outcome of query processing.
type HandleResult struct {
	ResponseBytes []byte // Raw response to send back; nil means drop
	Outcome       string
}

// Handle processes a single raw request datagram from src.
//
// Processing steps:
//  1. Extract (transaction ID, first question) from the raw bytes
//  2. Forward the bytes untouched to the upstream
//  3. Verify the response correlates back to the request ID
//  4. On failure answer FORMERR/SERVFAIL from the extractable header
func (h *QueryHandler) Handle(ctx context.Context, src string, reqBytes []byte) HandleResult {
	start := time.Now()
	if h.Stats != nil {
		h.Stats.RecordQuery()
	}

	id, q, err := dns.ExtractQueryInfo(reqBytes)
	if err != nil {
		res := h.handleExtractError(reqBytes, err)
		h.finish(ctx, src, q, res, start)
		return res
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	_, raw, err := resolver.ForwardContext(ctx, reqBytes, h.Upstream)
	if err != nil {
		h.logUpstreamError(ctx, src, q, err)
		res := HandleResult{ResponseBytes: h.buildLocalResponse(id, q, reqBytes, dns.RCodeServFail), Outcome: stats.OutcomeServFail}
		h.finish(ctx, src, q, res, start)
		return res
	}

	// Correlate: the query went out byte-for-byte, so the upstream must
	// echo the client's own transaction ID.
	if respID, _, err := dns.ExtractQueryInfo(raw); err != nil || respID != id {
		h.logUpstreamError(ctx, src, q, errors.New("upstream response does not match request id"))
		res := HandleResult{ResponseBytes: h.buildLocalResponse(id, q, reqBytes, dns.RCodeServFail), Outcome: stats.OutcomeServFail}
		h.finish(ctx, src, q, res, start)
		return res
	}

	res := HandleResult{ResponseBytes: raw, Outcome: stats.OutcomeForwarded}
	h.finish(ctx, src, q, res, start)
	return res
}

// handleExtractError answers FORMERR when at least the header was readable,
// and drops the datagram when not even a transaction ID can be recovered.
func (h *QueryHandler) handleExtractError(reqBytes []byte, cause error) HandleResult {
	if h.Logger != nil {
		h.Logger.Debug("malformed query", "error", cause)
	}
	cur := dns.NewCursor(reqBytes)
	hdr, err := dns.ParseHeader(cur)
	if err != nil {
		return HandleResult{Outcome: stats.OutcomeDropped}
	}
	resp := dns.Message{
		Header: dns.Header{
			ID:    hdr.ID,
			Flags: dns.ResponseFlags(hdr.Flags, dns.RCodeFormErr),
		},
	}
	b, err := resp.Marshal()
	if err != nil {
		return HandleResult{Outcome: stats.OutcomeDropped}
	}
	return HandleResult{ResponseBytes: b, Outcome: stats.OutcomeFormErr}
}

// buildLocalResponse builds an answerless response with the given rcode,
// echoing the request's question when it was extractable.
func (h *QueryHandler) buildLocalResponse(id uint16, q dns.Question, reqBytes []byte, rcode dns.RCode) []byte {
	reqFlags := dns.Flags{IsQuery: true}
	if hdr, err := dns.ParseHeader(dns.NewCursor(reqBytes)); err == nil {
		reqFlags = hdr.Flags
	}
	resp := dns.Message{
		Header: dns.Header{ID: id, Flags: dns.ResponseFlags(reqFlags, rcode)},
	}
	if q.Name != "" || q.Type != 0 {
		resp.Questions = []dns.Question{q}
	}
	b, err := resp.Marshal()
	if err != nil {
		return nil
	}
	return b
}

func (h *QueryHandler) finish(ctx context.Context, src string, q dns.Question, res HandleResult, start time.Time) {
	elapsed := time.Since(start)
	if h.Stats != nil {
		h.Stats.RecordOutcome(res.Outcome, len(res.ResponseBytes))
		h.Stats.RecordLatency(elapsed.Nanoseconds())
	}
	if h.QueryLog != nil {
		h.QueryLog.Record(querylog.Entry{
			Time:          start,
			Client:        src,
			QName:         q.Name,
			QType:         uint16(q.Type),
			Outcome:       res.Outcome,
			RTT:           elapsed,
			ResponseBytes: len(res.ResponseBytes),
		})
	}
	if h.Logger != nil {
		h.Logger.DebugContext(ctx, "query handled",
			"src", src,
			"qname", q.Name,
			"qtype", q.Type.String(),
			"outcome", res.Outcome,
			"rtt_ms", elapsed.Milliseconds(),
			"response_bytes", len(res.ResponseBytes),
		)
	}
}

func (h *QueryHandler) logUpstreamError(ctx context.Context, src string, q dns.Question, err error) {
	if h.Logger == nil {
		return
	}
	h.Logger.WarnContext(ctx, "upstream exchange failed",
		"src", src,
		"qname", q.Name,
		"qtype", q.Type.String(),
		"upstream", h.Upstream,
		"error", err,
	)
}
