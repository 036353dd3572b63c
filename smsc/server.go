package smsc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/panjf2000/gnet/v2"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/comm/logging"
	"github.com/aaronwong1989/gosmsc/queue"
	"github.com/aaronwong1989/gosmsc/snowflake32"
)

var log = logging.GetDefaultLogger()

var errWriteTimeout = errors.New("smsc: write timeout")

const (
	tickInterval   = time.Second
	expireInterval = time.Minute
)

type Server struct {
	gnet.BuiltinEventEngine
	engine    gnet.Engine
	protocol  string
	address   string
	multicore bool
	conf      *Config
	env       *Env
	pool      *ants.Pool
	conMap    sync.Map // connection id -> *Connection
	count     int32
	ctx       context.Context
	cancel    context.CancelFunc

	lastExpire time.Time
}

// poolScheduler 到期后把任务交给协程池，调用方不会被阻塞
type poolScheduler struct {
	pool *ants.Pool
}

func (p poolScheduler) Schedule(delay time.Duration, task func()) error {
	time.AfterFunc(delay, func() {
		if err := p.pool.Submit(task); err != nil {
			// 协程池已关闭或排队已满时直接执行
			log.Warnf("[%-9s] submit task: %v", "Schedule", err)
			task()
		}
	})
	return nil
}

// gnetTransport 把 PDU 交给事件循环写出，等待写完或超时
type gnetTransport struct {
	gnet.Conn
	timeout time.Duration
}

func (t *gnetTransport) Write(frame []byte) error {
	written := make(chan struct{})
	err := t.AsyncWrite(frame, func(c gnet.Conn) error {
		close(written)
		return nil
	})
	if err != nil {
		return err
	}
	select {
	case <-written:
		return nil
	case <-time.After(t.timeout):
		return errWriteTimeout
	}
}

// NewServer 按配置创建服务端，sink 接收连接与消息事件
func NewServer(conf *Config, sink EventSink) (*Server, error) {
	// 定义异步工作Go程池
	options := ants.Options{
		ExpiryDuration:   time.Minute,      // 1 分钟内不被使用的worker会被清除
		Nonblocking:      false,            // 如果为true,worker池满了后提交任务会直接返回nil
		MaxBlockingTasks: conf.MaxPoolSize, // blocking模式有效，否则worker池满了后提交任务会直接返回nil
		PreAlloc:         false,
		PanicHandler: func(e interface{}) {
			log.Errorf("%v", e)
		},
	}
	pool, err := ants.NewPool(conf.MaxPoolSize, ants.WithOptions(options))
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	ids := snowflake32.NewSnowflake(conf.DataCenterId, conf.WorkerId)
	router := NewRouter(queue.NewMemoryQueue(conf.QueueLimit, ids.NextId), queue.NewStore(), time.Now)
	s := &Server{
		protocol:  "tcp",
		address:   conf.Listen,
		multicore: conf.Multicore,
		conf:      conf,
		env:       NewEnv(conf, router, sink, poolScheduler{pool: pool}, ids.NextId),
		pool:      pool,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s, nil
}

func (s *Server) addr() string {
	return fmt.Sprintf("%s://%s", s.protocol, s.address)
}

// Run 阻塞直到服务退出
func (s *Server) Run() error {
	defer s.pool.Release()
	return gnet.Run(s, s.addr(),
		gnet.WithMulticore(s.multicore),
		gnet.WithTicker(true),
		gnet.WithLogger(logging.GetDefaultLogger()))
}

// Shutdown 向所有已绑定的会话发送 unbind，等待它们关闭后停止服务
func (s *Server) Shutdown(ctx context.Context) error {
	var conns []*Connection
	s.conMap.Range(func(_, value interface{}) bool {
		conns = append(conns, value.(*Connection))
		return true
	})
	log.Warnf("[%-9s] unbinding %d sessions ...", "Shutdown", len(conns))
	unbinds := make([]*PendingRequest, len(conns))
	for i, conn := range conns {
		unbinds[i], _ = conn.Unbind()
	}
	for i, conn := range conns {
		if p := unbinds[i]; p != nil {
			if resp, err := p.Wait(ctx); err == nil && resp == nil {
				log.Warnf("[%-9s] %s no unbind_resp", "Shutdown", conn.Id())
			}
		}
		select {
		case <-conn.Done():
		case <-ctx.Done():
			log.Warnf("[%-9s] %s not closed in time", "Shutdown", conn.Id())
			conn.Stop()
		}
	}
	s.cancel()
	return gnet.Stop(ctx, s.addr())
}

// DeliverReceipt 推送外部系统产生的状态报告
func (s *Server) DeliverReceipt(namespace string, dm *smpp.DeliverSm) error {
	return s.env.Router.DeliverReceipt(namespace, dm)
}

func (s *Server) OnBoot(eng gnet.Engine) (action gnet.Action) {
	log.Infof("[%-9s] running server on %s with multi-core=%t", "OnBoot", s.addr(), s.multicore)
	s.engine = eng
	return
}

func (s *Server) OnShutdown(_ gnet.Engine) {
	log.Warnf("[%-9s] shutdown server %s ...", "OnShutdown", s.addr())
	s.cancel()
	s.conMap.Range(func(_, value interface{}) bool {
		value.(*Connection).Stop()
		return true
	})
	log.Warnf("[%-9s] shutdown server %s completed!", "OnShutdown", s.addr())
}

func (s *Server) OnOpen(c gnet.Conn) (out []byte, action gnet.Action) {
	if !s.acquire() {
		log.Warnf("[%-9s] [%v<->%v] FLOW CONTROL：connections threshold reached, closing new connection...", "OnOpen", c.RemoteAddr(), c.LocalAddr())
		return nil, gnet.Close
	}
	conn := NewConnection(s.ctx, s.env, &gnetTransport{Conn: c, timeout: s.conf.ResponseTimeout})
	c.SetContext(conn)
	s.conMap.Store(conn.Id(), conn)
	log.Infof("[%-9s] [%v<->%v] activeCons=%d.", "OnOpen", c.RemoteAddr(), c.LocalAddr(), s.activeCons())
	return
}

func (s *Server) OnClose(c gnet.Conn, e error) (action gnet.Action) {
	conn, ok := c.Context().(*Connection)
	if !ok {
		return
	}
	log.Warnf("[%-9s] [%v<->%v] %s closed, reason=%v.", "OnClose", c.RemoteAddr(), c.LocalAddr(), conn.Id(), e)
	conn.Stop()
	s.conMap.Delete(conn.Id())
	atomic.AddInt32(&s.count, -1)
	return
}

func (s *Server) OnTraffic(c gnet.Conn) (action gnet.Action) {
	conn, ok := c.Context().(*Connection)
	if !ok {
		return gnet.Close
	}
	buf, err := c.Next(-1)
	if err != nil {
		log.Errorf("[%-9s] [%v<->%v] read error: %v", "OnTraffic", c.RemoteAddr(), c.LocalAddr(), err)
		return gnet.Close
	}
	// gnet 会复用读缓冲区
	data := make([]byte, len(buf))
	copy(data, buf)
	if !conn.Feed(data) {
		log.Warnf("[%-9s] [%v<->%v] FLOW CONTROL：inbound queue of %s is full, closing...", "OnTraffic", c.RemoteAddr(), c.LocalAddr(), conn.Id())
		return gnet.Close
	}
	return gnet.None
}

func (s *Server) OnTick() (delay time.Duration, action gnet.Action) {
	now := time.Now()
	s.conMap.Range(func(_, value interface{}) bool {
		value.(*Connection).Tick(now)
		return true
	})
	if now.Sub(s.lastExpire) >= expireInterval {
		s.lastExpire = now
		store := s.env.Router.store
		if n := store.Expire(now.Add(-s.conf.RecordTtl)); n > 0 {
			log.Infof("[%-9s] %d active connections, %d records expired, %d remain.", "OnTick", s.activeCons(), n, store.Len())
		}
	}
	return tickInterval, gnet.None
}

// acquire 占用一个连接名额，多个事件循环并发调用也不会超过 MaxCons
func (s *Server) acquire() bool {
	if int(atomic.AddInt32(&s.count, 1)) > s.conf.MaxCons {
		atomic.AddInt32(&s.count, -1)
		return false
	}
	return true
}

func (s *Server) activeCons() int {
	return int(atomic.LoadInt32(&s.count))
}
