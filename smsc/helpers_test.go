package smsc

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/queue"
)

const waitFor = 2 * time.Second

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// recordingSink 记录事件名与首个参数，如 "BindSucceeded esme"
type recordingSink struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingSink) add(name string, arg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name+" "+arg)
}

func (r *recordingSink) count(prefix string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if strings.HasPrefix(e, prefix) {
			n++
		}
	}
	return n
}

func (r *recordingSink) ConnectionOpened(_ string, remote string) { r.add("ConnectionOpened", remote) }
func (r *recordingSink) ConnectionClosed(_ string, _ string, reason string) {
	r.add("ConnectionClosed", reason)
}
func (r *recordingSink) BindSucceeded(_ string, systemId string, _ string) {
	r.add("BindSucceeded", systemId)
}
func (r *recordingSink) BindFailed(_ string, _ string, _ string, status uint32) {
	r.add("BindFailed", smpp.StatusName(status))
}
func (r *recordingSink) DecodeFailed(_ string, kind string, _ uint32) { r.add("DecodeFailed", kind) }
func (r *recordingSink) SequenceAnomaly(_ string, seq uint32, _ uint32) {
	r.add("SequenceAnomaly", fmt.Sprint(seq))
}
func (r *recordingSink) TimedOut(_ string, what string)            { r.add("TimedOut", what) }
func (r *recordingSink) PduReceived(_ string, commandId uint32)    { r.add("PduReceived", smpp.CommandName(commandId)) }
func (r *recordingSink) PduSent(_ string, commandId uint32, _ uint32) { r.add("PduSent", smpp.CommandName(commandId)) }
func (r *recordingSink) Submitted(systemId string, _ string, status uint32) {
	r.add("Submitted", smpp.StatusName(status))
}
func (r *recordingSink) Delivered(systemId string, messageId string) { r.add("Delivered", messageId) }
func (r *recordingSink) DeliveryFailed(_ string, messageId string, reason string) {
	r.add("DeliveryFailed", reason)
}
func (r *recordingSink) Throttled(_ string, systemId string) { r.add("Throttled", systemId) }

var errTransportClosed = errors.New("transport closed")

// fakeTransport 内存中的传输，写出的每个 PDU 进入 frames
type fakeTransport struct {
	frames chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{frames: make(chan []byte, 256), closed: make(chan struct{})}
}

func (f *fakeTransport) Write(frame []byte) error {
	select {
	case <-f.closed:
		return errTransportClosed
	default:
	}
	f.frames <- frame
	return nil
}

func (f *fakeTransport) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeTransport) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 40000}
}

func (f *fakeTransport) isClosed() bool {
	select {
	case <-f.closed:
		return true
	default:
		return false
	}
}

// next 读取下一个写出的 PDU
func (f *fakeTransport) next(t *testing.T) smpp.Pdu {
	t.Helper()
	select {
	case frame := <-f.frames:
		pdu, n, err := smpp.Decode(frame, 0)
		require.NoError(t, err)
		require.Equal(t, len(frame), n)
		t.Logf(">>> %s", pdu)
		return pdu
	case <-time.After(waitFor):
		t.Fatal("no pdu written")
		return nil
	}
}

func (f *fakeTransport) nothing(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case frame := <-f.frames:
		t.Fatalf("unexpected frame %x", frame)
	case <-time.After(d):
	}
}

func (f *fakeTransport) waitClosed(t *testing.T) {
	t.Helper()
	select {
	case <-f.closed:
	case <-time.After(waitFor):
		t.Fatal("transport not closed")
	}
}

// failingTransport 每次写都失败
type failingTransport struct {
	*fakeTransport
	writes atomic.Int32
}

func (f *failingTransport) Write([]byte) error {
	f.writes.Add(1)
	return errors.New("broken pipe")
}

type testEnv struct {
	*Env
	clock *fakeClock
	sink  *recordingSink
	queue *queue.MemoryQueue
	store *queue.Store
}

func newTestEnv(modify ...func(conf *Config)) *testEnv {
	conf := &Config{}
	for _, m := range modify {
		m(conf)
	}
	conf.Defaults()

	var n uint32
	nextId := func() string {
		return fmt.Sprintf("%08X", atomic.AddUint32(&n, 1))
	}
	clock := newFakeClock()
	q := queue.NewMemoryQueue(conf.QueueLimit, nextId)
	store := queue.NewStore()
	router := NewRouter(q, store, clock.Now)
	sink := &recordingSink{}
	env := NewEnv(conf, router, sink, nil, nextId)
	env.Dispatch.Now = clock.Now
	return &testEnv{Env: env, clock: clock, sink: sink, queue: q, store: store}
}

// feed 把 PDU 交给连接，inbound 满时稍后重试
func feed(t *testing.T, c *Connection, data []byte) {
	t.Helper()
	deadline := time.Now().Add(waitFor)
	for !c.Feed(data) {
		if time.Now().After(deadline) {
			t.Fatal("connection does not accept data")
		}
		time.Sleep(time.Millisecond)
	}
}
