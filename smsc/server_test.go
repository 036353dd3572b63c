package smsc

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

func freeAddr(t *testing.T) string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no local listener: %v", err)
	}
	defer l.Close()
	return l.Addr().String()
}

func readPdu(t *testing.T, c net.Conn) smpp.Pdu {
	t.Helper()
	_ = c.SetReadDeadline(time.Now().Add(waitFor))
	head := make([]byte, 4)
	_, err := io.ReadFull(c, head)
	require.NoError(t, err)
	frame := make([]byte, binary.BigEndian.Uint32(head))
	copy(frame, head)
	_, err = io.ReadFull(c, frame[4:])
	require.NoError(t, err)
	pdu, _, err := smpp.Decode(frame, 0)
	require.NoError(t, err)
	t.Logf("<<< %s", pdu)
	return pdu
}

func TestServer_EndToEnd(t *testing.T) {
	conf := &Config{Listen: freeAddr(t), MaxPoolSize: 16, Multicore: false}
	conf.Defaults()
	sink := &recordingSink{}
	s, err := NewServer(conf, sink)
	require.NoError(t, err)

	go func() {
		if err := s.Run(); err != nil {
			t.Logf("server exit: %v", err)
		}
	}()

	var c net.Conn
	for i := 0; i < 50; i++ {
		if c, err = net.Dial("tcp", conf.Listen); err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Skipf("server not reachable: %v", err)
	}
	defer c.Close()

	_, err = c.Write(smpp.NewBind(smpp.BIND_TRANSCEIVER, 1, "esme", "esme").Encode())
	require.NoError(t, err)
	resp := readPdu(t, c).(*smpp.BindResp)
	assert.Equal(t, smpp.ESME_ROK, resp.CommandStatus)
	assert.Equal(t, "gosmsc", resp.SystemId)

	sm := smpp.NewSubmitSm(2, "10086", "12345", "hello")
	sm.RegisteredDelivery = 1
	_, err = c.Write(sm.Encode())
	require.NoError(t, err)
	sr := readPdu(t, c).(*smpp.SubmitSmResp)
	assert.Equal(t, smpp.ESME_ROK, sr.CommandStatus)

	// 状态报告经协程池延迟推送
	dm := readPdu(t, c).(*smpp.DeliverSm)
	assert.Equal(t, sr.MessageId, dm.ReceiptedMessageId())
	_, err = c.Write(dm.ToResponse(smpp.ESME_ROK).Encode())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.Shutdown(ctx) }()

	u := readPdu(t, c)
	require.Equal(t, smpp.UNBIND, u.Head().CommandId)
	_, err = c.Write(u.(*smpp.Unbind).ToResponse(smpp.ESME_ROK).Encode())
	require.NoError(t, err)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, sink.count("BindSucceeded esme"))
}

// 协程池占满时 Schedule 也立即返回
func TestPoolScheduler_DoesNotBlock(t *testing.T) {
	pool, err := ants.NewPool(1, ants.WithMaxBlockingTasks(1))
	require.NoError(t, err)
	defer pool.Release()

	release := make(chan struct{})
	require.NoError(t, pool.Submit(func() { <-release }))

	s := poolScheduler{pool: pool}
	var ran int32
	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Schedule(10*time.Millisecond, func() { atomic.AddInt32(&ran, 1) }))
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 3 }, waitFor, 5*time.Millisecond)
}

func TestServer_AcquireLimit(t *testing.T) {
	s := &Server{conf: &Config{MaxCons: 2}}
	var wg sync.WaitGroup
	var ok int32
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.acquire() {
				atomic.AddInt32(&ok, 1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(2), ok)
	assert.Equal(t, 2, s.activeCons())
}
