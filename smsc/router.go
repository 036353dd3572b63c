package smsc

import (
	"errors"
	"regexp"
	"sync"
	"time"

	"github.com/aaronwong1989/gosmsc"
	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/queue"
)

var ErrUnknownMessage = errors.New("smsc: receipt matches no submitted message")

type route struct {
	conn     string
	systemId string
	re       *regexp.Regexp
}

// Router 连接之间共享：短信记录、待推送队列、接收方的 address_range
type Router struct {
	queue queue.Queue
	store *queue.Store
	now   func() time.Time

	mu     sync.RWMutex
	routes []route
}

func NewRouter(q queue.Queue, store *queue.Store, now func() time.Time) *Router {
	if now == nil {
		now = time.Now
	}
	return &Router{queue: q, store: store, now: now}
}

func (r *Router) Queue() queue.Queue {
	return r.queue
}

func (r *Router) Get(id string) (*gosmsc.Message, bool) {
	return r.store.Get(id)
}

// Register 接收方以 address_range 登记，空 address_range 不接收上行
func (r *Router) Register(conn string, systemId string, addressRange string) error {
	if addressRange == "" {
		return nil
	}
	re, err := regexp.Compile("^(?:" + addressRange + ")$")
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{conn: conn, systemId: systemId, re: re})
	return nil
}

func (r *Router) Unregister(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.routes[:0]
	for _, rt := range r.routes {
		if rt.conn != conn {
			kept = append(kept, rt)
		}
	}
	r.routes = kept
}

// Lookup 先登记的接收方优先
func (r *Router) Lookup(destination string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rt := range r.routes {
		if rt.re.MatchString(destination) {
			return rt.systemId, true
		}
	}
	return "", false
}

func (r *Router) Store(msg *gosmsc.Message) {
	r.store.Put(msg)
}

func (r *Router) Enqueue(msg *gosmsc.Message) (string, error) {
	return r.queue.Enqueue(msg)
}

// Complete 短信到达终态，提交方要求时推送状态报告
func (r *Router) Complete(id string, delivered bool) {
	state, errCode := smpp.DELIVERED, uint8(0)
	if !delivered {
		state, errCode = smpp.UNDELIVERABLE, 1
	}
	msg, ok := r.store.Finish(id, state, errCode, r.now())
	if !ok || !msg.WantsReceipt() {
		return
	}
	rpt := msg.ToReceipt()
	if _, err := r.queue.Enqueue(rpt); err != nil {
		log.Warnf("[%-9s] receipt of %s to %s dropped: %v", "Receipt", id, msg.Owner, err)
	}
}

// Cancel 取消短信，同时撤回尚未推送的上行
func (r *Router) Cancel(id string, recipient string) bool {
	if !r.store.Cancel(id, r.now()) {
		return false
	}
	if recipient != "" {
		r.queue.Remove(recipient, id)
	}
	return true
}

// DeliverReceipt 外部系统产生的状态报告，按 receipted_message_id 推送给原短信的提交方
func (r *Router) DeliverReceipt(namespace string, dm *smpp.DeliverSm) error {
	key, ok := gosmsc.ReceiptKey(namespace, dm)
	if !ok {
		return smpp.ErrNotReceipt
	}
	owner, ok := r.store.Owner(key)
	if !ok {
		return ErrUnknownMessage
	}
	msg := gosmsc.FromDeliverSm(dm)
	msg.Namespace = namespace
	msg.Recipient = owner
	_, err := r.queue.Enqueue(msg)
	return err
}
