package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/orbworks/orbit/internal/pool"
	"github.com/orbworks/orbit/logger"
	"github.com/orbworks/orbit/protocol"
	"github.com/orbworks/orbit/transport"
	"github.com/puzpuzpuz/xsync/v3"
)

const (
	// seqSpace is the size of the one-byte sequence number space.
	seqSpace = 256

	// replyChannelTimeout is the timeout for handing a matched response
	// to its waiting sender.
	replyChannelTimeout = time.Second
)

// Sentinel errors for session operations.
var (
	ErrSessionClosed     = errors.New("session: session closed")
	ErrCommandNil        = errors.New("session: command is nil")
	ErrResponseTimeout   = errors.New("session: response timeout")
	ErrNotifyTimeout     = errors.New("session: notification timeout")
	ErrSequenceExhausted = errors.New("session: all sequence numbers in flight")
	ErrChannelFailure    = errors.New("session: channel failure")
)

// NotificationHandler receives asynchronous notifications that no
// send-expect-notify waiter claimed. It runs on the session's dispatch
// goroutine: a slow handler delays later notifications but never the
// read loop.
type NotificationHandler func(n *protocol.Notification)

// ErrorHandler receives soft anomalies (corrupt frames the stream
// recovered from) and the fatal channel error that tears the session
// down. It runs on the goroutine that observed the error.
type ErrorHandler func(err error)

// notifyWaiter is one send-expect-notify caller waiting for the next
// notification with a given id-code. Waiters for the same id-code are
// completed in registration order.
type notifyWaiter struct {
	idCode byte
	ch     chan *protocol.Notification

	// err is set under the session's waiterMu before ch is closed, and
	// read by the waiter only after it observes the close.
	err error
}

// Session drives one robot over one channel: it assigns sequence numbers,
// writes request frames, and correlates response and notification frames
// back to the callers and handlers expecting them.
//
// A Session owns two goroutines: a reader that decodes frames off the
// channel, and a dispatcher that feeds unclaimed notifications to the
// registered handler. All exported methods are safe for concurrent use.
type Session struct {
	ctx       context.Context
	ctxCancel context.CancelFunc
	cfg       *Config
	logger    logger.Logger

	ch      transport.Channel
	writeMu sync.Mutex

	taskMgr *taskManager

	// Sequence allocation. nextSeq is the scan cursor; a sequence number
	// is in flight exactly while replyChans holds an entry for it.
	seqMu   sync.Mutex
	nextSeq byte

	replyChans *xsync.MapOf[byte, chan *protocol.Response]
	replyErrs  *xsync.MapOf[byte, error]

	// Notification waiters in registration order.
	waiterMu sync.Mutex
	waiters  []*notifyWaiter

	// notifyChan feeds the dispatcher goroutine.
	notifyChan chan *protocol.Notification

	handlerMu     sync.RWMutex
	notifyHandler NotificationHandler
	errorHandler  ErrorHandler

	closed      atomic.Bool
	failed      atomic.Bool
	closeReason atomic.Value // error

	metrics SessionMetrics
}

// New creates a Session over ch and starts its reader and dispatcher
// goroutines. On success the session takes ownership of ch: closing the
// session closes the channel.
func New(ctx context.Context, ch transport.Channel, opts ...Option) (*Session, error) {
	if ch == nil {
		return nil, errors.New("session: channel is nil")
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:        cfg,
		logger:     cfg.logger,
		ch:         ch,
		replyChans: xsync.NewMapOf[byte, chan *protocol.Response](),
		replyErrs:  xsync.NewMapOf[byte, error](),
		notifyChan: make(chan *protocol.Notification, cfg.notifyQueueSize),
	}
	s.ctx, s.ctxCancel = context.WithCancel(ctx)
	s.taskMgr = newTaskManager(s.ctx, cfg.logger)

	deframer := &protocol.Deframer{}
	buf := make([]byte, cfg.readBufferSize)

	if err := s.taskMgr.start("reader", func() bool {
		return s.readPass(deframer, buf)
	}); err != nil {
		s.ctxCancel()

		return nil, err
	}

	if err := s.taskMgr.startConsumer("dispatcher", s.dispatchNotification, s.notifyChan); err != nil {
		s.ctxCancel()

		return nil, err
	}

	return s, nil
}

// --- Sending ---

// Send transmits cmd and blocks until the robot's response arrives, a
// timeout fires, or ctx is cancelled.
//
// A zero-status response yields the response data. A non-zero status is
// returned as a *protocol.StatusError. The command is consumed: sending
// it a second time fails with protocol.ErrCommandSpent.
func (s *Session) Send(ctx context.Context, cmd *protocol.Command) ([]byte, error) {
	resp, err := s.roundTrip(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if !resp.Ok() {
		return nil, &protocol.StatusError{Code: resp.Status}
	}

	return resp.Data, nil
}

// SendExpectNotify transmits cmd and blocks until the robot both
// acknowledges it and delivers the notification carrying idCode that
// reports the command's outcome.
//
// The synchronous response is consumed as an interim ack: a non-zero
// status fails the wait immediately with *protocol.StatusError, a zero
// status keeps waiting for the notification. Concurrent waits on the
// same id-code complete in the order they were issued.
func (s *Session) SendExpectNotify(ctx context.Context, cmd *protocol.Command, idCode byte) ([]byte, error) {
	seq, replyChan, err := s.prepare(cmd)
	if err != nil {
		return nil, err
	}

	req, err := cmd.Finish(seq)
	if err != nil {
		s.replyChans.Delete(seq)

		return nil, err
	}

	// Register the waiter before the request reaches the wire so the
	// notification cannot slip past it.
	w := s.addNotifyWaiter(idCode)

	if err := s.writeFrame(req); err != nil {
		s.requeueAbandoned(w)
		s.replyChans.Delete(seq)

		return nil, err
	}

	resp, err := s.awaitResponse(ctx, seq, replyChan)
	if err != nil {
		s.requeueAbandoned(w)

		return nil, err
	}

	if !resp.Ok() {
		s.requeueAbandoned(w)

		return nil, &protocol.StatusError{Code: resp.Status}
	}

	return s.awaitNotification(ctx, w)
}

func (s *Session) roundTrip(ctx context.Context, cmd *protocol.Command) (*protocol.Response, error) {
	seq, replyChan, err := s.prepare(cmd)
	if err != nil {
		return nil, err
	}

	req, err := cmd.Finish(seq)
	if err != nil {
		s.replyChans.Delete(seq)

		return nil, err
	}

	if err := s.writeFrame(req); err != nil {
		s.replyChans.Delete(seq)

		return nil, err
	}

	return s.awaitResponse(ctx, seq, replyChan)
}

// prepare validates cmd and reserves a sequence number with its reply
// channel.
func (s *Session) prepare(cmd *protocol.Command) (byte, chan *protocol.Response, error) {
	if cmd == nil {
		return 0, nil, ErrCommandNil
	}

	if s.closed.Load() {
		return 0, nil, ErrSessionClosed
	}

	return s.allocSeq()
}

// allocSeq reserves the next free sequence number and registers its reply
// channel. A sequence number is free while no sender awaits a response on
// it; the cursor advances monotonically so recently answered numbers are
// reused last.
func (s *Session) allocSeq() (byte, chan *protocol.Response, error) {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	for i := 0; i < seqSpace; i++ {
		seq := s.nextSeq
		s.nextSeq++

		if _, inFlight := s.replyChans.Load(seq); inFlight {
			continue
		}

		replyChan := make(chan *protocol.Response, 1)
		s.replyChans.Store(seq, replyChan)

		return seq, replyChan, nil
	}

	return 0, nil, ErrSequenceExhausted
}

// writeFrame encodes f and writes it to the channel in a single call.
// A write error is a fatal channel failure.
func (s *Session) writeFrame(f protocol.Frame) error {
	wire, err := f.Encode()
	if err != nil {
		return err
	}

	s.writeMu.Lock()
	_, err = s.ch.Write(wire)
	s.writeMu.Unlock()

	if err != nil {
		werr := fmt.Errorf("%w: write: %v", ErrChannelFailure, err)
		s.channelFailure(werr)

		return werr
	}

	s.metrics.incRequestSendCount()

	return nil
}

// awaitResponse blocks until the response for seq arrives or the wait is
// abandoned. The sequence number's table entry is released on every
// return path.
func (s *Session) awaitResponse(ctx context.Context, seq byte, replyChan chan *protocol.Response) (*protocol.Response, error) {
	var timerC <-chan time.Time

	if s.cfg.responseTimeout > 0 {
		timer := pool.GetTimer(s.cfg.responseTimeout)
		defer pool.PutTimer(timer)
		timerC = timer.C
	}

	s.metrics.incInflightCount()
	defer s.metrics.decInflightCount()

	select {
	case <-ctx.Done():
		s.replyChans.Delete(seq)

		return nil, ctx.Err()

	case <-s.ctx.Done():
		s.replyChans.Delete(seq)

		return nil, s.closeCause()

	case <-timerC:
		s.replyChans.Delete(seq)
		s.logger.Warn("session: response timeout",
			"seq", fmt.Sprintf("0x%02X", seq),
			"timeout", s.cfg.responseTimeout)

		return nil, ErrResponseTimeout

	case resp := <-replyChan:
		s.replyChans.Delete(seq)

		if resp == nil {
			if err, ok := s.replyErrs.LoadAndDelete(seq); ok {
				return nil, err
			}

			return nil, ErrSessionClosed
		}

		return resp, nil
	}
}

// awaitNotification blocks until w receives its notification or the wait
// is abandoned.
func (s *Session) awaitNotification(ctx context.Context, w *notifyWaiter) ([]byte, error) {
	var timerC <-chan time.Time

	if s.cfg.notifyTimeout > 0 {
		timer := pool.GetTimer(s.cfg.notifyTimeout)
		defer pool.PutTimer(timer)
		timerC = timer.C
	}

	select {
	case <-ctx.Done():
		s.requeueAbandoned(w)

		return nil, ctx.Err()

	case <-s.ctx.Done():
		s.requeueAbandoned(w)

		return nil, s.closeCause()

	case <-timerC:
		// The notification may have claimed the waiter as the timer
		// fired; honor the delivery over the timeout.
		if n := s.abandonWait(w); n != nil {
			return n.Data, nil
		}

		s.logger.Warn("session: notification timeout",
			"idCode", fmt.Sprintf("0x%02X", w.idCode),
			"timeout", s.cfg.notifyTimeout)

		return nil, ErrNotifyTimeout

	case n, ok := <-w.ch:
		if !ok {
			if w.err != nil {
				return nil, w.err
			}

			return nil, ErrSessionClosed
		}

		return n.Data, nil
	}
}

// --- Handlers ---

// SetNotificationHandler registers h as the notification handler. There
// is a single slot: a later registration replaces the earlier one, and a
// nil h unregisters it.
func (s *Session) SetNotificationHandler(h NotificationHandler) {
	s.handlerMu.Lock()
	s.notifyHandler = h
	s.handlerMu.Unlock()
}

// SetErrorHandler registers h as the error handler. There is a single
// slot: a later registration replaces the earlier one, and a nil h
// unregisters it.
func (s *Session) SetErrorHandler(h ErrorHandler) {
	s.handlerMu.Lock()
	s.errorHandler = h
	s.handlerMu.Unlock()
}

// reportError hands err to the registered error handler, if any.
func (s *Session) reportError(err error) {
	s.handlerMu.RLock()
	handler := s.errorHandler
	s.handlerMu.RUnlock()

	if handler == nil {
		s.logger.Debug("session: unhandled soft error", "error", err)

		return
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("session: panic in error handler", "panic", r)
		}
	}()

	handler(err)
}

// --- Receiving ---

// readPass performs one read from the channel and routes every complete
// frame it produced.
//
// A (0, nil) read is a poll timeout on a quiet channel and is normal. A
// read error during shutdown is expected; any other read error is a
// fatal channel failure.
func (s *Session) readPass(d *protocol.Deframer, buf []byte) bool {
	n, err := s.ch.Read(buf)
	if n > 0 {
		d.Push(buf[:n])
		s.drainFrames(d)
	}

	if err != nil {
		if s.closed.Load() {
			return false
		}

		s.channelFailure(fmt.Errorf("%w: read: %v", ErrChannelFailure, err))

		return false
	}

	return true
}

// drainFrames routes every complete frame in the window.
func (s *Session) drainFrames(d *protocol.Deframer) {
	for {
		frame, err := d.Next()
		if err != nil {
			if errors.Is(err, protocol.ErrIncomplete) {
				return
			}

			// Corrupt frame. The window already advanced past it, so
			// report and resume scanning.
			s.metrics.incDecodeErrCount()
			s.reportError(err)

			continue
		}

		switch f := frame.(type) {
		case *protocol.Response:
			s.handleResponse(f)
		case *protocol.Notification:
			s.handleNotification(f)
		}
	}
}

// handleResponse matches a response frame to the sender waiting on its
// sequence number.
//
// A response matching no pending sequence is counted and dropped: its
// sender may have timed out or been cancelled before the robot answered.
func (s *Session) handleResponse(resp *protocol.Response) {
	replyChan, loaded := s.replyChans.Load(resp.Seq)
	if !loaded || replyChan == nil {
		s.metrics.incUnmatchedCount()
		s.logger.Debug("session: response matches no pending request",
			"seq", fmt.Sprintf("0x%02X", resp.Seq),
			"status", fmt.Sprintf("0x%02X", resp.Status))

		return
	}

	s.metrics.incResponseRecvCount()

	timer := pool.GetTimer(replyChannelTimeout)
	defer pool.PutTimer(timer)

	select {
	case <-s.ctx.Done():
		s.replyChans.Delete(resp.Seq)

	case <-timer.C:
		s.logger.Warn("session: reply channel send timeout, dropping response",
			"seq", fmt.Sprintf("0x%02X", resp.Seq))
		s.replyChans.Delete(resp.Seq)

	case replyChan <- resp:
		// Delivered; the waiter releases the table entry.
	}
}

// handleNotification hands a notification to the oldest waiter registered
// for its id-code, or queues it for the dispatch goroutine.
func (s *Session) handleNotification(n *protocol.Notification) {
	s.metrics.incNotifyRecvCount()

	if s.claimNotification(n) {
		return
	}

	s.enqueueNotification(n)
}

// claimNotification delivers n to the oldest waiter for its id-code.
func (s *Session) claimNotification(n *protocol.Notification) bool {
	s.waiterMu.Lock()
	defer s.waiterMu.Unlock()

	for i, w := range s.waiters {
		if w.idCode != n.IDCode {
			continue
		}

		s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)

		// Buffered: each waiter receives at most one delivery.
		w.ch <- n

		return true
	}

	return false
}

// enqueueNotification queues n for the dispatch goroutine, dropping it
// when the queue is full so the reader never stalls on a slow handler.
func (s *Session) enqueueNotification(n *protocol.Notification) {
	select {
	case s.notifyChan <- n:
	default:
		s.metrics.incNotifyDropCount()
		s.logger.Warn("session: notification queue full, dropping",
			"idCode", fmt.Sprintf("0x%02X", n.IDCode),
			"queue_size", cap(s.notifyChan))
	}
}

// dispatchNotification invokes the registered handler for one unclaimed
// notification. Runs on the dispatcher goroutine, panic-isolated by the
// task manager.
func (s *Session) dispatchNotification(n *protocol.Notification) {
	s.handlerMu.RLock()
	handler := s.notifyHandler
	s.handlerMu.RUnlock()

	if handler == nil {
		s.metrics.incNotifyDropCount()
		s.logger.Debug("session: no notification handler registered, dropping",
			"idCode", fmt.Sprintf("0x%02X", n.IDCode))

		return
	}

	handler(n)
}

// --- Notification waiters ---

func (s *Session) addNotifyWaiter(idCode byte) *notifyWaiter {
	w := &notifyWaiter{idCode: idCode, ch: make(chan *protocol.Notification, 1)}

	s.waiterMu.Lock()
	s.waiters = append(s.waiters, w)
	s.waiterMu.Unlock()

	return w
}

// abandonWait removes w from the waiter table. When a notification
// claimed w in the race window, it is returned; the claim's delivery
// completed before the claim released waiterMu, so the receive below
// never blocks.
func (s *Session) abandonWait(w *notifyWaiter) *protocol.Notification {
	s.waiterMu.Lock()
	for i, cand := range s.waiters {
		if cand == w {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			s.waiterMu.Unlock()

			return nil
		}
	}
	s.waiterMu.Unlock()

	select {
	case n := <-w.ch:
		return n
	default:
		return nil
	}
}

// requeueAbandoned abandons w and routes a notification that already
// claimed it to the dispatch queue, so the abandoned wait does not
// swallow it.
func (s *Session) requeueAbandoned(w *notifyWaiter) {
	if n := s.abandonWait(w); n != nil {
		s.enqueueNotification(n)
	}
}

// --- Lifecycle ---

// Close shuts the session down: it stops both goroutines, closes the
// channel, and completes every outstanding wait with ErrSessionClosed.
// Close is idempotent; the first caller performs the teardown and later
// sends fail with ErrSessionClosed.
func (s *Session) Close() error {
	return s.teardown(ErrSessionClosed)
}

// Closed reports whether the session has been closed or torn down.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Metrics returns the session's metric counters.
func (s *Session) Metrics() *SessionMetrics {
	return &s.metrics
}

// channelFailure reports a fatal channel error once and tears the
// session down as Close would, completing every pending wait with err.
func (s *Session) channelFailure(err error) {
	if s.closed.Load() {
		return
	}

	if !s.failed.CompareAndSwap(false, true) {
		return
	}

	s.reportError(err)

	go func() { _ = s.teardown(err) }()
}

func (s *Session) teardown(reason error) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}

	s.logger.Debug("session: closing", "reason", reason)

	closeCtx, closeCtxCancel := context.WithTimeout(context.Background(), s.cfg.closeTimeout)
	defer closeCtxCancel()

	// Wake pending waits; they resolve the reason via closeCause.
	s.closeReason.Store(reason)
	s.ctxCancel()
	s.taskMgr.stop()

	// Unblock the reader's in-flight Read.
	if err := s.ch.Close(); err != nil {
		s.logger.Debug("session: channel close error", "error", err)
	}

	go func() {
		s.taskMgr.wait()
		closeCtxCancel()
	}()

	<-closeCtx.Done()

	var closeErr error
	if !errors.Is(closeCtx.Err(), context.Canceled) {
		s.logger.Error("session: close timeout", "timeout", s.cfg.closeTimeout)
		closeErr = fmt.Errorf("session: close timeout: %w", closeCtx.Err())
	}

	// The reader has terminated; fail whatever pending entries remain.
	s.dropPendingReplies(reason)
	s.dropNotifyWaiters(reason)

	s.logger.Debug("session: closed")

	return closeErr
}

func (s *Session) closeCause() error {
	if v := s.closeReason.Load(); v != nil {
		if err, ok := v.(error); ok {
			return err
		}
	}

	return ErrSessionClosed
}

// dropPendingReplies fails every pending reply wait with reason. The
// reader must have terminated before reply channels are closed here.
func (s *Session) dropPendingReplies(reason error) {
	s.replyChans.Range(func(seq byte, replyChan chan *protocol.Response) bool {
		s.replyErrs.Store(seq, reason)

		if replyChan != nil {
			close(replyChan)
		}

		return true
	})

	s.replyChans.Clear()
}

// dropNotifyWaiters fails every notification wait with reason.
func (s *Session) dropNotifyWaiters(reason error) {
	s.waiterMu.Lock()
	defer s.waiterMu.Unlock()

	for _, w := range s.waiters {
		w.err = reason
		close(w.ch)
	}

	s.waiters = nil
}
