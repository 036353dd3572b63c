package smsc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/aaronwong1989/gosmsc"
	"github.com/aaronwong1989/gosmsc/codec"
	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/comm"
	"github.com/aaronwong1989/gosmsc/comm/logging"
)

// Transport 连接的底层字节流，每次 Write 写出一个完整的 PDU
type Transport interface {
	Write(frame []byte) error
	Close() error
	RemoteAddr() net.Addr
}

// Scheduler 延迟执行任务，生产环境由 ants 协程池实现
type Scheduler interface {
	Schedule(delay time.Duration, task func()) error
}

// Env 所有连接共享的配置与协作者
type Env struct {
	Conf      *Config
	Dispatch  *DispatchContext
	Router    *Router
	Sink      EventSink
	Scheduler Scheduler
}

// NewEnv 按配置组装共享协作者，nextId 为 message_id 生成器
func NewEnv(conf *Config, router *Router, sink EventSink, scheduler Scheduler, nextId func() string) *Env {
	return &Env{
		Conf: conf,
		Dispatch: &DispatchContext{
			SystemId:        conf.SystemId,
			Namespace:       conf.Namespace,
			MaxBindAttempts: conf.MaxBindAttempts,
			Auth:            AuthenticatorOf(conf.Credentials),
			Logic:           LogicOf(&conf.Logic),
			Records:         router,
			Routes:          router,
			NextId:          nextId,
			Now:             time.Now,
		},
		Router:    router,
		Sink:      sink,
		Scheduler: scheduler,
	}
}

const (
	inboundBuffer  = 64
	outboundBuffer = 256
)

var errWriteFailed = errors.New("smsc: write failed")

// Connection 一个 ESME 连接的 actor：会话状态、序号匹配、读写均只在其协程中访问
type Connection struct {
	id        string
	env       *Env
	transport Transport

	state   SessionState
	seq     codec.Sequence32
	pending *Correlator
	limiter *rate.Limiter
	buf     []byte

	inbound  chan []byte
	outbound chan []byte
	ticks    chan time.Time
	control  chan func()
	notify   <-chan struct{}
	unsub    func()

	ctx    context.Context
	cancel context.CancelCauseFunc
	done   chan struct{}

	openedAt time.Time
	lastRecv time.Time
	lastSent time.Time
	closing   bool
	draining  bool
	unbinding *PendingRequest
	reason    string
}

// NewConnection 创建并启动连接的 actor 与写协程
func NewConnection(ctx context.Context, env *Env, transport Transport) *Connection {
	now := env.Dispatch.Now()
	c := &Connection{
		id:        uuid.NewString(),
		env:       env,
		transport: transport,
		seq:       comm.NewCycleSequence(1),
		pending:   NewCorrelator(),
		limiter:   rate.NewLimiter(rate.Limit(env.Conf.SubmitRate), env.Conf.SubmitBurst),
		inbound:   make(chan []byte, inboundBuffer),
		outbound:  make(chan []byte, outboundBuffer),
		ticks:     make(chan time.Time, 1),
		control:   make(chan func()),
		done:      make(chan struct{}),
		openedAt:  now,
		lastRecv:  now,
		lastSent:  now,
	}
	c.ctx, c.cancel = context.WithCancelCause(ctx)
	peer := ""
	if addr := transport.RemoteAddr(); addr != nil {
		peer = addr.String()
	}
	c.state = SessionState{Mode: Unbound, ConnectionId: c.id, Peer: peer, LastActivity: now}
	env.Sink.ConnectionOpened(c.id, peer)

	go c.writeLoop()
	go c.run()
	return c
}

func (c *Connection) Id() string {
	return c.id
}

// Done 连接关闭且缓冲的数据已写完后关闭
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

// Feed 交给 actor 一段收到的字节，不阻塞；actor 处理不过来时返回 false
func (c *Connection) Feed(data []byte) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.inbound <- data:
		return true
	case <-c.ctx.Done():
		return false
	default:
		return false
	}
}

// Tick 驱动心跳与超时检查，不阻塞
func (c *Connection) Tick(now time.Time) {
	select {
	case c.ticks <- now:
	default:
	}
}

// Unbind 服务端主动解绑，收到 unbind_resp 或超时后关闭。
// 返回发出的 unbind 请求，未绑定时请求为 nil；连接已关闭时返回 false
func (c *Connection) Unbind() (*PendingRequest, bool) {
	ch := make(chan *PendingRequest, 1)
	select {
	case c.control <- func() { ch <- c.unbind() }:
		return <-ch, true
	case <-c.ctx.Done():
		return nil, false
	}
}

// Stop 立即关闭，用于对端已断开
func (c *Connection) Stop() {
	c.cancel(nil)
}

// Snapshot 由 actor 返回会话状态的副本，连接已关闭时返回 false
func (c *Connection) Snapshot() (SessionState, bool) {
	ch := make(chan SessionState, 1)
	select {
	case c.control <- func() { ch <- c.state }:
		return <-ch, true
	case <-c.ctx.Done():
		return SessionState{}, false
	}
}

func (c *Connection) run() {
	defer c.shutdown()
	for !c.closing {
		select {
		case <-c.ctx.Done():
			if c.reason == "" {
				c.reason = "closed by peer"
				if errors.Is(context.Cause(c.ctx), errWriteFailed) {
					c.reason = "write error"
				}
			}
			return
		case data := <-c.inbound:
			c.onData(data)
		case now := <-c.ticks:
			c.onTick(now)
		case <-c.notify:
			c.pump()
		case fn := <-c.control:
			fn()
		}
	}
}

func (c *Connection) now() time.Time {
	return c.env.Dispatch.Now()
}

func (c *Connection) onData(data []byte) {
	c.lastRecv = c.now()
	c.state.LastActivity = c.lastRecv
	c.buf = append(c.buf, data...)

	off := 0
	for !c.closing {
		pdu, n, err := smpp.Decode(c.buf[off:], c.env.Conf.MaxPduSize)
		if errors.Is(err, smpp.ErrIncomplete) {
			break
		}
		if err != nil {
			var de *smpp.DecodeError
			if !errors.As(err, &de) {
				log.Errorf("[%-9s] %s decode error: %v", "OnTraffic", c.id, err)
				c.closeAfterFlush("decode error")
				break
			}
			log.Warnf("[%-9s] %s %v", "OnTraffic", c.id, de)
			c.apply(DispatchError(c.env.Dispatch, c.state, de))
			if de.Fatal() {
				comm.LogHex(logging.DebugLevel, "Malformed", c.buf[off:])
				off = len(c.buf)
				break
			}
			comm.LogHex(logging.DebugLevel, "Malformed", c.buf[off:off+n])
			off += n
			continue
		}
		off += n
		log.Debugf("[%-9s] <<< %s", "OnTraffic", pdu)
		c.env.Sink.PduReceived(c.id, pdu.Head().CommandId)
		c.apply(c.handle(pdu))
	}

	// 未解析完的半包移到缓冲区头部，复用底层数组
	rest := copy(c.buf, c.buf[off:])
	c.buf = c.buf[:rest]
}

// handle submit_sm 超过流控速率时直接拒绝，其余交给 Dispatch
func (c *Connection) handle(pdu smpp.Pdu) Result {
	if sm, ok := pdu.(*smpp.SubmitSm); ok && c.state.Mode.Allows(smpp.SUBMIT_SM) && !c.limiter.Allow() {
		systemId := c.state.SystemId
		return Result{
			Response: sm.ToResponse(smpp.ESME_RTHROTTLED),
			State:    c.state,
			Effects: []Effect{EventEffect(func(conn string, sink EventSink) {
				sink.Throttled(conn, systemId)
			})},
		}
	}
	return Dispatch(c.env.Dispatch, c.state, pdu)
}

func (c *Connection) apply(res Result) {
	wasBound := c.state.Mode.Bound()
	c.state = res.State
	if res.Response != nil {
		c.send(res.Response)
	}
	router := c.env.Router
	for _, e := range res.Effects {
		switch e := e.(type) {
		case CloseEffect:
			c.closeAfterFlush(e.Reason)
		case StoreEffect:
			router.Store(e.Message)
		case EnqueueEffect:
			if _, err := router.Enqueue(e.Message); err != nil {
				log.Warnf("[%-9s] %s enqueue %s failed: %v", "OnTraffic", c.id, e.Message.Id, err)
				router.Complete(e.Message.Id, false)
			}
		case ReceiptEffect:
			c.schedule(e)
		case CancelEffect:
			router.Cancel(e.MessageId, e.Recipient)
		case ResolveEffect:
			c.resolve(e.Seq, e.Response)
		case EventEffect:
			e(c.id, c.env.Sink)
		}
	}
	if !wasBound && c.state.Mode.Bound() && !c.closing {
		c.onBound()
	}
}

func (c *Connection) onBound() {
	if !c.state.Mode.CanReceive() {
		return
	}
	if err := c.env.Router.Register(c.id, c.state.SystemId, c.state.AddressRange); err != nil {
		log.Warnf("[%-9s] %s address_range %q ignored: %v", "OnTraffic", c.id, c.state.AddressRange, err)
	}
	c.notify, c.unsub = c.env.Router.Queue().Subscribe(c.state.SystemId)
}

func (c *Connection) schedule(e ReceiptEffect) {
	router, id, delivered := c.env.Router, e.Message.Id, e.Delivered
	task := func() { router.Complete(id, delivered) }
	if c.env.Scheduler == nil || e.Delay <= 0 {
		task()
		return
	}
	if err := c.env.Scheduler.Schedule(e.Delay, task); err != nil {
		log.Errorf("[%-9s] %s schedule receipt of %s: %v", "OnTraffic", c.id, id, err)
		task()
	}
}

// send 交给写协程，连接关闭时放弃
func (c *Connection) send(pdu smpp.Pdu) {
	frame := pdu.Encode()
	select {
	case c.outbound <- frame:
	case <-c.ctx.Done():
		return
	}
	c.lastSent = c.now()
	h := pdu.Head()
	log.Debugf("[%-9s] >>> %s", "OnTraffic", pdu)
	c.env.Sink.PduSent(c.id, h.CommandId, h.CommandStatus)
}

// request 发出需要对端响应的请求，序号冲突时返回 nil
func (c *Connection) request(pdu smpp.Pdu, payload *gosmsc.Message) *PendingRequest {
	h := pdu.Head()
	p, err := c.pending.Register(h.SequenceNumber, h.CommandId, payload, c.now())
	if err != nil {
		c.env.Sink.SequenceAnomaly(c.id, h.SequenceNumber, h.CommandId)
		return nil
	}
	c.send(pdu)
	return p
}

// pump 在窗口允许的范围内推送排队的 deliver_sm
func (c *Connection) pump() {
	if c.closing || c.draining || !c.state.Mode.CanReceive() {
		return
	}
	q := c.env.Router.Queue()
	for c.pending.Len() < c.env.Conf.Window {
		msg, ok := q.DequeueFor(c.state.SystemId)
		if !ok {
			return
		}
		if c.request(msg.ToDeliverSm(c.seq.NextVal()), msg) == nil {
			q.Requeue(msg)
			return
		}
	}
}

func (c *Connection) resolve(seq uint32, resp smpp.Pdu) {
	h := resp.Head()
	p, ok := c.pending.Resolve(seq, resp)
	if !ok {
		c.env.Sink.SequenceAnomaly(c.id, seq, h.CommandId)
		return
	}
	switch p.CommandId {
	case smpp.DELIVER_SM:
		if h.CommandId == smpp.DELIVER_SM_RESP && h.CommandStatus == smpp.ESME_ROK {
			c.env.Sink.Delivered(p.Payload.Recipient, p.Payload.Id)
			c.env.Router.Complete(p.Payload.Id, true)
		} else {
			c.deliveryFailed(p.Payload, smpp.StatusName(h.CommandStatus))
		}
		c.pump()
	case smpp.UNBIND:
		c.closeAfterFlush("unbind")
	}
}

// deliveryFailed 未超过重试次数的放回队首，否则按投递失败结束
func (c *Connection) deliveryFailed(msg *gosmsc.Message, reason string) {
	msg.Attempts++
	c.env.Sink.DeliveryFailed(msg.Recipient, msg.Id, reason)
	if msg.Attempts >= c.env.Conf.MaxDeliveryAttempts {
		c.env.Router.Complete(msg.Id, false)
		return
	}
	c.env.Router.Queue().Requeue(msg)
}

func (c *Connection) onTick(now time.Time) {
	conf := c.env.Conf
	if expired := c.pending.ExpireOlderThan(conf.ResponseTimeout, now); len(expired) > 0 {
		for _, p := range expired {
			c.env.Sink.TimedOut(c.id, smpp.CommandName(p.CommandId))
			if p.Payload != nil {
				c.deliveryFailed(p.Payload, "timeout")
			}
		}
		c.closeAfterFlush("response timeout")
		return
	}
	if !c.state.Mode.Bound() && now.Sub(c.openedAt) >= conf.BindTimeout {
		c.env.Sink.TimedOut(c.id, "bind")
		c.closeAfterFlush("bind timeout")
		return
	}
	if c.state.Mode.Bound() && now.Sub(c.lastRecv) >= conf.IdleTimeout {
		c.env.Sink.TimedOut(c.id, "idle")
		c.closeAfterFlush("idle timeout")
		return
	}

	last := c.lastRecv
	if c.lastSent.After(last) {
		last = c.lastSent
	}
	if now.Sub(last) >= conf.EnquireLinkInterval && c.pending.Len() == 0 {
		c.request(smpp.NewEnquireLink(c.seq.NextVal()), nil)
	}
	c.pump()
}

func (c *Connection) unbind() *PendingRequest {
	if !c.state.Mode.Bound() {
		c.closeAfterFlush("shutdown")
		return nil
	}
	if c.unbinding != nil {
		return c.unbinding
	}
	c.draining = true
	c.unbinding = c.request(smpp.NewUnbind(c.seq.NextVal()), nil)
	if c.unbinding == nil {
		c.closeAfterFlush("shutdown")
	}
	return c.unbinding
}

func (c *Connection) closeAfterFlush(reason string) {
	if c.closing {
		return
	}
	c.closing = true
	c.reason = reason
	c.state.Mode = Closed
}

// shutdown actor 退出时执行：未完成的推送放回队列，写协程写完后关闭传输
func (c *Connection) shutdown() {
	for _, p := range c.pending.Drain() {
		if p.Payload != nil {
			c.deliveryFailed(p.Payload, "connection closed")
		}
	}
	c.env.Router.Unregister(c.id)
	if c.unsub != nil {
		c.unsub()
	}
	c.state.Mode = Closed
	c.env.Sink.ConnectionClosed(c.id, c.state.SystemId, c.reason)
	close(c.outbound)
}

// writeLoop 写失败后立即关闭传输并结束 actor，之后的数据丢弃
func (c *Connection) writeLoop() {
	defer close(c.done)
	defer c.cancel(nil)
	failed := false
	for frame := range c.outbound {
		if failed {
			continue
		}
		if err := c.transport.Write(frame); err != nil {
			log.Warnf("[%-9s] %s write error: %v", "OnTraffic", c.id, err)
			failed = true
			c.cancel(fmt.Errorf("%w: %v", errWriteFailed, err))
			_ = c.transport.Close()
		}
	}
	if !failed {
		_ = c.transport.Close()
	}
}
