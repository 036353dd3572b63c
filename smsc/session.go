package smsc

import (
	"fmt"
	"time"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// BindMode 会话的绑定状态
type BindMode int

const (
	Unbound BindMode = iota
	Transmitter
	Receiver
	Transceiver
	Closed
)

func (m BindMode) String() string {
	switch m {
	case Unbound:
		return "Unbound"
	case Transmitter:
		return "Transmitter"
	case Receiver:
		return "Receiver"
	case Transceiver:
		return "Transceiver"
	case Closed:
		return "Closed"
	}
	return fmt.Sprintf("BindMode(%d)", int(m))
}

func (m BindMode) Bound() bool {
	return m == Transmitter || m == Receiver || m == Transceiver
}

// CanTransmit 可以接收 ESME 提交的短信
func (m BindMode) CanTransmit() bool {
	return m == Transmitter || m == Transceiver
}

// CanReceive 可以向 ESME 推送 deliver_sm
func (m BindMode) CanReceive() bool {
	return m == Receiver || m == Transceiver
}

// allowed 各状态下允许 ESME 发起的请求，表外一律回复 ESME_RINVBNDSTS
var allowed = map[BindMode]map[uint32]bool{
	Unbound: {
		smpp.BIND_TRANSMITTER: true,
		smpp.BIND_RECEIVER:    true,
		smpp.BIND_TRANSCEIVER: true,
		smpp.ENQUIRE_LINK:     true,
	},
	Transmitter: {
		smpp.SUBMIT_SM:    true,
		smpp.QUERY_SM:     true,
		smpp.CANCEL_SM:    true,
		smpp.ENQUIRE_LINK: true,
		smpp.UNBIND:       true,
	},
	Receiver: {
		smpp.ENQUIRE_LINK: true,
		smpp.UNBIND:       true,
	},
	Transceiver: {
		smpp.SUBMIT_SM:    true,
		smpp.QUERY_SM:     true,
		smpp.CANCEL_SM:    true,
		smpp.ENQUIRE_LINK: true,
		smpp.UNBIND:       true,
	},
	Closed: {},
}

// Allows 当前状态是否允许该请求
func (m BindMode) Allows(commandId uint32) bool {
	return allowed[m][commandId]
}

// ModeOf bind 命令对应的绑定状态
func ModeOf(bindCommand uint32) BindMode {
	switch bindCommand {
	case smpp.BIND_TRANSMITTER:
		return Transmitter
	case smpp.BIND_RECEIVER:
		return Receiver
	case smpp.BIND_TRANSCEIVER:
		return Transceiver
	}
	return Unbound
}

// SessionState 由连接的 actor 独占，Dispatch 返回新的副本
type SessionState struct {
	Mode         BindMode
	SystemId     string
	ConnectionId string
	Peer         string
	LastActivity time.Time
	BindAttempts int
	AddressRange string // 接收端的 address_range
}

func (s SessionState) String() string {
	return fmt.Sprintf("{ conn: %s, peer: %s, mode: %s, systemId: %s, bindAttempts: %d }",
		s.ConnectionId, s.Peer, s.Mode, s.SystemId, s.BindAttempts)
}
