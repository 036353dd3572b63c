package smsc

import (
	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/comm/logging"
)

// EventSink 连接与消息事件的观察者，日志与指标各有一个实现
type EventSink interface {
	ConnectionOpened(conn string, remote string)
	ConnectionClosed(conn string, systemId string, reason string)
	BindSucceeded(conn string, systemId string, mode string)
	BindFailed(conn string, systemId string, mode string, status uint32)
	DecodeFailed(conn string, kind string, status uint32)
	SequenceAnomaly(conn string, seq uint32, commandId uint32)
	TimedOut(conn string, what string)
	PduReceived(conn string, commandId uint32)
	PduSent(conn string, commandId uint32, status uint32)
	Submitted(systemId string, messageId string, status uint32)
	Delivered(systemId string, messageId string)
	DeliveryFailed(systemId string, messageId string, reason string)
	Throttled(conn string, systemId string)
}

// LogSink 以日志记录事件
type LogSink struct {
	log logging.Logger
}

func NewLogSink(log logging.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) ConnectionOpened(conn string, remote string) {
	s.log.Infof("[%-9s] %s connection opened from %s", "OnOpen", conn, remote)
}

func (s *LogSink) ConnectionClosed(conn string, systemId string, reason string) {
	s.log.Infof("[%-9s] %s(%s) connection closed: %s", "OnClose", conn, systemId, reason)
}

func (s *LogSink) BindSucceeded(conn string, systemId string, mode string) {
	s.log.Infof("[%-9s] %s bound as %s, system_id: %s", "OnTraffic", conn, mode, systemId)
}

func (s *LogSink) BindFailed(conn string, systemId string, mode string, status uint32) {
	s.log.Warnf("[%-9s] %s bind %s failed, system_id: %s, status: %s", "OnTraffic", conn, mode, systemId, smpp.StatusName(status))
}

func (s *LogSink) DecodeFailed(conn string, kind string, status uint32) {
	s.log.Warnf("[%-9s] %s decode failed: %s, status: %s", "OnTraffic", conn, kind, smpp.StatusName(status))
}

func (s *LogSink) SequenceAnomaly(conn string, seq uint32, commandId uint32) {
	s.log.Warnf("[%-9s] %s unexpected %s seq=%d, dropped", "OnTraffic", conn, smpp.CommandName(commandId), seq)
}

func (s *LogSink) TimedOut(conn string, what string) {
	s.log.Warnf("[%-9s] %s %s timeout", "OnTick", conn, what)
}

func (s *LogSink) PduReceived(conn string, commandId uint32) {
	s.log.Debugf("[%-9s] %s <<< %s", "OnTraffic", conn, smpp.CommandName(commandId))
}

func (s *LogSink) PduSent(conn string, commandId uint32, status uint32) {
	s.log.Debugf("[%-9s] %s >>> %s %s", "OnTraffic", conn, smpp.CommandName(commandId), smpp.StatusName(status))
}

func (s *LogSink) Submitted(systemId string, messageId string, status uint32) {
	s.log.Infof("[%-9s] submit_sm from %s, msgId: %s, status: %s", "OnTraffic", systemId, messageId, smpp.StatusName(status))
}

func (s *LogSink) Delivered(systemId string, messageId string) {
	s.log.Infof("[%-9s] deliver_sm to %s acknowledged, msgId: %s", "OnTraffic", systemId, messageId)
}

func (s *LogSink) DeliveryFailed(systemId string, messageId string, reason string) {
	s.log.Warnf("[%-9s] deliver_sm to %s failed, msgId: %s, reason: %s", "OnTraffic", systemId, messageId, reason)
}

func (s *LogSink) Throttled(conn string, systemId string) {
	s.log.Warnf("[%-9s] FLOW CONTROL: %s(%s) submit_sm throttled", "OnTraffic", conn, systemId)
}

// MultiSink 把事件分发给多个 EventSink
type MultiSink []EventSink

func (m MultiSink) ConnectionOpened(conn string, remote string) {
	for _, s := range m {
		s.ConnectionOpened(conn, remote)
	}
}

func (m MultiSink) ConnectionClosed(conn string, systemId string, reason string) {
	for _, s := range m {
		s.ConnectionClosed(conn, systemId, reason)
	}
}

func (m MultiSink) BindSucceeded(conn string, systemId string, mode string) {
	for _, s := range m {
		s.BindSucceeded(conn, systemId, mode)
	}
}

func (m MultiSink) BindFailed(conn string, systemId string, mode string, status uint32) {
	for _, s := range m {
		s.BindFailed(conn, systemId, mode, status)
	}
}

func (m MultiSink) DecodeFailed(conn string, kind string, status uint32) {
	for _, s := range m {
		s.DecodeFailed(conn, kind, status)
	}
}

func (m MultiSink) SequenceAnomaly(conn string, seq uint32, commandId uint32) {
	for _, s := range m {
		s.SequenceAnomaly(conn, seq, commandId)
	}
}

func (m MultiSink) TimedOut(conn string, what string) {
	for _, s := range m {
		s.TimedOut(conn, what)
	}
}

func (m MultiSink) PduReceived(conn string, commandId uint32) {
	for _, s := range m {
		s.PduReceived(conn, commandId)
	}
}

func (m MultiSink) PduSent(conn string, commandId uint32, status uint32) {
	for _, s := range m {
		s.PduSent(conn, commandId, status)
	}
}

func (m MultiSink) Submitted(systemId string, messageId string, status uint32) {
	for _, s := range m {
		s.Submitted(systemId, messageId, status)
	}
}

func (m MultiSink) Delivered(systemId string, messageId string) {
	for _, s := range m {
		s.Delivered(systemId, messageId)
	}
}

func (m MultiSink) DeliveryFailed(systemId string, messageId string, reason string) {
	for _, s := range m {
		s.DeliveryFailed(systemId, messageId, reason)
	}
}

func (m MultiSink) Throttled(conn string, systemId string) {
	for _, s := range m {
		s.Throttled(conn, systemId)
	}
}
