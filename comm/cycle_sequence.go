package comm

import (
	"math"
	"sync"
)

// CycleSequence 循环序号生成器，取值范围 [1, MaxUint32]，越过最大值后回到1，不会产生0
type CycleSequence struct {
	sync.Mutex
	next uint32
}

func NewCycleSequence(start uint32) *CycleSequence {
	if start == 0 {
		start = 1
	}
	return &CycleSequence{next: start}
}

func (s *CycleSequence) NextVal() uint32 {
	s.Lock()
	defer s.Unlock()
	v := s.next
	if s.next == math.MaxUint32 {
		s.next = 1
	} else {
		s.next++
	}
	return v
}
