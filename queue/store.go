package queue

import (
	"sync"
	"time"

	"github.com/aaronwong1989/gosmsc"
	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// Store 已接收短信的记录，供 query_sm / cancel_sm 查询，以及状态报告找回提交方
type Store struct {
	mu      sync.RWMutex
	records map[string]*gosmsc.Message
	keys    map[gosmsc.MessageKey]string
}

func NewStore() *Store {
	return &Store{
		records: make(map[string]*gosmsc.Message),
		keys:    make(map[gosmsc.MessageKey]string),
	}
}

// Put 保存记录，由调用方保证 msg.Id 已分配
func (s *Store) Put(msg *gosmsc.Message) {
	cp := *msg
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[msg.Id] = &cp
	s.keys[msg.Key()] = msg.Id
}

// Get 返回记录的拷贝
func (s *Store) Get(id string) (*gosmsc.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.records[id]
	if !ok {
		return nil, false
	}
	cp := *m
	return &cp, true
}

// Finish 设置终态，记录不存在或已是终态时返回 false
func (s *Store) Finish(id string, state uint8, errCode uint8, now time.Time) (*gosmsc.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.records[id]
	if !ok || m.Final() {
		return nil, false
	}
	m.State = state
	m.ErrorCode = errCode
	m.DoneAt = now
	cp := *m
	return &cp, true
}

// Cancel 取消尚未到达终态的短信
func (s *Store) Cancel(id string, now time.Time) bool {
	_, ok := s.Finish(id, smpp.DELETED, 0, now)
	return ok
}

// Owner 按状态报告的 MessageKey 找回原短信的提交方
func (s *Store) Owner(key gosmsc.MessageKey) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.keys[key]
	if !ok {
		return "", false
	}
	m, ok := s.records[id]
	if !ok {
		return "", false
	}
	return m.Owner, true
}

// Expire 清理 DoneAt (未终结的用 SubmittedAt) 早于 before 的记录，返回清理数量
func (s *Store) Expire(before time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, m := range s.records {
		t := m.SubmittedAt
		if m.Final() {
			t = m.DoneAt
		}
		if t.Before(before) {
			delete(s.records, id)
			delete(s.keys, m.Key())
			n++
		}
	}
	return n
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
