// Package queue 进程内共享的待推送消息队列与短信记录，可被多个连接并发访问
package queue

import (
	"container/list"
	"errors"
	"sync"

	"github.com/aaronwong1989/gosmsc"
)

var ErrQueueFull = errors.New("queue: full")

// Queue 待推送 deliver_sm 的队列，按接收方 system_id 分组
type Queue interface {
	// Enqueue 入队并返回消息ID
	Enqueue(msg *gosmsc.Message) (string, error)
	// DequeueFor 取出接收方的下一条消息
	DequeueFor(recipient string) (*gosmsc.Message, bool)
	// Requeue 推送失败的消息放回队首
	Requeue(msg *gosmsc.Message)
	// Remove 删除尚未推送的消息
	Remove(recipient string, id string) bool
	// Subscribe 接收方有新消息时收到通知，返回取消订阅函数
	Subscribe(recipient string) (<-chan struct{}, func())
	Len(recipient string) int
}

type MemoryQueue struct {
	mu          sync.Mutex
	limit       int // 每个接收方的队列上限，<=0 不限制
	nextId      func() string
	queues      map[string]*list.List
	subscribers map[string]map[chan struct{}]struct{}
}

// NewMemoryQueue nextId 用于为没有ID的消息分配ID
func NewMemoryQueue(limit int, nextId func() string) *MemoryQueue {
	return &MemoryQueue{
		limit:       limit,
		nextId:      nextId,
		queues:      make(map[string]*list.List),
		subscribers: make(map[string]map[chan struct{}]struct{}),
	}
}

func (q *MemoryQueue) Enqueue(msg *gosmsc.Message) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l := q.list(msg.Recipient)
	if q.limit > 0 && l.Len() >= q.limit {
		return "", ErrQueueFull
	}
	if msg.Id == "" && q.nextId != nil {
		msg.Id = q.nextId()
	}
	l.PushBack(msg)
	q.signal(msg.Recipient)
	return msg.Id, nil
}

func (q *MemoryQueue) DequeueFor(recipient string) (*gosmsc.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.queues[recipient]
	if !ok || l.Len() == 0 {
		return nil, false
	}
	msg := l.Remove(l.Front()).(*gosmsc.Message)
	if l.Len() == 0 {
		delete(q.queues, recipient)
	}
	return msg, true
}

// Requeue 不受队列上限约束，已经出队的消息不能丢
func (q *MemoryQueue) Requeue(msg *gosmsc.Message) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.list(msg.Recipient).PushFront(msg)
	q.signal(msg.Recipient)
}

func (q *MemoryQueue) Remove(recipient string, id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.queues[recipient]
	if !ok {
		return false
	}
	for e := l.Front(); e != nil; e = e.Next() {
		if e.Value.(*gosmsc.Message).Id == id {
			l.Remove(e)
			return true
		}
	}
	return false
}

func (q *MemoryQueue) Subscribe(recipient string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	q.mu.Lock()
	subs, ok := q.subscribers[recipient]
	if !ok {
		subs = make(map[chan struct{}]struct{})
		q.subscribers[recipient] = subs
	}
	subs[ch] = struct{}{}
	// 订阅前已有积压消息
	if l, ok := q.queues[recipient]; ok && l.Len() > 0 {
		ch <- struct{}{}
	}
	q.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			q.mu.Lock()
			defer q.mu.Unlock()
			delete(q.subscribers[recipient], ch)
			if len(q.subscribers[recipient]) == 0 {
				delete(q.subscribers, recipient)
			}
		})
	}
}

func (q *MemoryQueue) Len(recipient string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if l, ok := q.queues[recipient]; ok {
		return l.Len()
	}
	return 0
}

func (q *MemoryQueue) list(recipient string) *list.List {
	l, ok := q.queues[recipient]
	if !ok {
		l = list.New()
		q.queues[recipient] = l
	}
	return l
}

// signal 不阻塞，通道里已有未处理的通知时跳过
func (q *MemoryQueue) signal(recipient string) {
	for ch := range q.subscribers[recipient] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
