package server

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"time"

	"symdex/internal/config"
	"symdex/internal/errors"
	"symdex/internal/protocol"
)

// state is the position of a worker in its single exchange.
type state int

const (
	stateAwaitingLength state = iota
	stateAwaitingPayload
	stateParsing
	stateResponding
	stateClosed
)

func (s state) String() string {
	switch s {
	case stateAwaitingLength:
		return "awaiting-length"
	case stateAwaitingPayload:
		return "awaiting-payload"
	case stateParsing:
		return "parsing"
	case stateResponding:
		return "responding"
	case stateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// worker owns one connection for exactly one request/response exchange.
// It shares no state with other workers beyond the server counters.
type worker struct {
	id      string
	conn    net.Conn
	cfg     config.ServerConfig
	indexer Indexer
	srv     *Server
	logger  *slog.Logger
	state   state
}

func (w *worker) run(ctx context.Context) {
	defer w.close()

	start := time.Now()
	w.logger.Debug("Connection accepted", "state", w.state.String())
	w.deadline(w.conn.SetReadDeadline, w.cfg.ReadTimeout)

	r := bufio.NewReader(w.conn)
	n, err := protocol.ReadLength(r, w.cfg.MaxPayloadBytes)
	if err != nil {
		w.abort(err)
		return
	}

	w.transition(stateAwaitingPayload, "length", n)
	payload, err := protocol.ReadPayload(r, n)
	if err != nil {
		w.abort(err)
		return
	}

	w.transition(stateParsing)
	table, err := w.indexer.Index(ctx, payload)

	w.transition(stateResponding)
	w.deadline(w.conn.SetWriteDeadline, w.cfg.WriteTimeout)
	if err != nil {
		w.respondError(err)
		return
	}
	if err := protocol.WriteTable(w.conn, table); err != nil {
		w.srv.failures.Add(1)
		w.logger.Warn("Failed to write response", "error", err)
		return
	}
	w.srv.served.Add(1)
	w.logger.Debug("Request served", "bytes", n, "duration", time.Since(start))
}

// abort ends a connection whose request could not be read. Nothing is
// written back. Malformed framing is the client's fault and logged at
// debug; anything else is logged at warn.
func (w *worker) abort(err error) {
	if errors.IsFraming(err) {
		w.srv.framingErrors.Add(1)
		w.logger.Debug("Dropping connection", "error", err, "code", string(errors.CodeOf(err)))
		return
	}
	w.srv.failures.Add(1)
	w.logger.Warn("Reading request failed", "error", err)
}

// respondError writes an error payload. Parse and encoding failures are the
// client's fault and logged at debug; anything else is logged at warn.
func (w *worker) respondError(err error) {
	if errors.IsParse(err) {
		w.srv.parseErrors.Add(1)
		w.logger.Debug("Source rejected", "error", err)
	} else {
		w.srv.failures.Add(1)
		w.logger.Warn("Indexing failed", "error", err)
	}
	if werr := protocol.WriteError(w.conn, err); werr != nil {
		w.logger.Warn("Failed to write error response", "error", werr)
	}
}

func (w *worker) transition(next state, attrs ...any) {
	w.logger.Debug("State", append([]any{"from", w.state.String(), "to", next.String()}, attrs...)...)
	w.state = next
}

func (w *worker) deadline(set func(time.Time) error, d config.Duration) {
	if d <= 0 {
		return
	}
	if err := set(time.Now().Add(d.Std())); err != nil {
		w.logger.Debug("Failed to set deadline", "error", err)
	}
}

func (w *worker) close() {
	w.transition(stateClosed)
	if err := w.conn.Close(); err != nil {
		w.logger.Debug("Close failed", "error", err)
	}
}
