package smsc

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/aaronwong1989/gosmsc"
	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

var ErrDuplicateSequence = errors.New("smsc: duplicate sequence number")

// PendingRequest SMSC 发出、尚未收到响应的请求
type PendingRequest struct {
	Seq       uint32
	CommandId uint32
	IssuedAt  time.Time
	Payload   *gosmsc.Message // deliver_sm 携带的消息，其它请求为 nil
	Response  smpp.Pdu        // 超时或连接关闭时为 nil

	done chan struct{}
	once sync.Once
}

func (p *PendingRequest) complete(resp smpp.Pdu) {
	p.once.Do(func() {
		p.Response = resp
		close(p.done)
	})
}

// Wait 等待响应，超时或连接关闭时 Response 为 nil
func (p *PendingRequest) Wait(ctx context.Context) (smpp.Pdu, error) {
	select {
	case <-p.done:
		return p.Response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Correlator 按序号匹配对端的响应，仅由所属连接的 actor 访问
type Correlator struct {
	pending map[uint32]*PendingRequest
}

func NewCorrelator() *Correlator {
	return &Correlator{pending: make(map[uint32]*PendingRequest)}
}

func (c *Correlator) Register(seq uint32, commandId uint32, payload *gosmsc.Message, now time.Time) (*PendingRequest, error) {
	if _, ok := c.pending[seq]; ok {
		return nil, ErrDuplicateSequence
	}
	p := &PendingRequest{Seq: seq, CommandId: commandId, IssuedAt: now, Payload: payload, done: make(chan struct{})}
	c.pending[seq] = p
	return p, nil
}

// Resolve 序号未知时返回 false，由调用方记录异常后丢弃
func (c *Correlator) Resolve(seq uint32, resp smpp.Pdu) (*PendingRequest, bool) {
	p, ok := c.pending[seq]
	if !ok {
		return nil, false
	}
	delete(c.pending, seq)
	p.complete(resp)
	return p, true
}

// ExpireOlderThan 移除发出时间超过 d 的请求，按序号排序返回
func (c *Correlator) ExpireOlderThan(d time.Duration, now time.Time) []*PendingRequest {
	var expired []*PendingRequest
	for seq, p := range c.pending {
		if now.Sub(p.IssuedAt) >= d {
			delete(c.pending, seq)
			expired = append(expired, p)
		}
	}
	return finish(expired)
}

// Drain 连接关闭时取出全部未完成的请求
func (c *Correlator) Drain() []*PendingRequest {
	all := make([]*PendingRequest, 0, len(c.pending))
	for _, p := range c.pending {
		all = append(all, p)
	}
	c.pending = make(map[uint32]*PendingRequest)
	return finish(all)
}

func (c *Correlator) Len() int {
	return len(c.pending)
}

func finish(ps []*PendingRequest) []*PendingRequest {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Seq < ps[j].Seq })
	for _, p := range ps {
		p.complete(nil)
	}
	return ps
}
