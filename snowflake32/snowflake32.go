package snowflake32

import (
	"fmt"
	"sync"
	"time"
)

// Snowflake 24小时内不会重复的雪花序号生成器，用于分配 message_id
// 构成为: seconds 17 bit | datacenter 2 bit | worker 3 bit | sequence 10 bit
// 最大支持32个节点，单节点TPS不超过1024，超过则会阻塞程序到下一秒再返回序号
// seconds占用17bits是因为一天86400秒占用17bits
type Snowflake struct {
	sync.Mutex        // 锁
	seconds    uint32 // 时间戳 ，截止到午夜0点的秒数
	datacenter uint32 // 数据中心机房id, 取值范围范围：0-3
	worker     uint32 // 工作节点, 取值范围范围：0-7
	sequence   uint32 // 序列号
	now        func() time.Time
}

const (
	sequenceMask    = uint32(0x03ff)                             // 最大值为10个1
	datacenterMask  = uint32(0x03)                               //
	workerMask      = uint32(0x07)                               //
	datacenterBits  = uint(2)                                    // 数据中心id所占位数
	workerBits      = uint(3)                                    // 机器id所占位数
	sequenceBits    = uint(10)                                   // 序列所占的位数
	workerShift     = sequenceBits                               // 机器id左移位数
	datacenterShift = sequenceBits + workerBits                  // 数据中心id左移位数
	timestampShift  = sequenceBits + workerBits + datacenterBits // 时间戳左移位数
)

// NewSnowflake d for datacenter-id, w for worker-id
func NewSnowflake(d int32, w int32) *Snowflake {
	return &Snowflake{datacenter: uint32(d) & datacenterMask, worker: uint32(w) & workerMask, now: time.Now}
}

func (s *Snowflake) NextVal() uint32 {
	s.Lock()
	defer s.Unlock()
	now := s.passedSeconds() // 获得当前秒
	if s.seconds == now {
		// 当同一时间戳（精度：秒）下次生成id会增加序列号
		s.sequence = (s.sequence + 1) & sequenceMask
		if s.sequence == 0 {
			// 如果当前序列超出10bit长度，则需要等待下一秒
			// 下一秒将使用sequence:0
			for now == s.seconds {
				time.Sleep(time.Millisecond)
				now = s.passedSeconds()
			}
		}
	} else {
		// 不同时间戳（精度：秒）下直接使用序列号：0
		s.sequence = 0
	}
	s.seconds = now
	return (s.seconds << timestampShift) | (s.datacenter << datacenterShift) | (s.worker << workerShift) | s.sequence
}

// NextId 以定长16进制字符串形式返回序号，作为 submit_sm_resp 中的 message_id
func (s *Snowflake) NextId() string {
	return fmt.Sprintf("%08X", s.NextVal())
}

func (s *Snowflake) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", s.seconds, s.datacenter, s.worker, s.sequence)
}

func (s *Snowflake) passedSeconds() uint32 {
	t := s.now()
	return uint32(t.Hour()*3600 + t.Minute()*60 + t.Second())
}
