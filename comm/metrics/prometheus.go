// Package metrics 将SMSC事件统计为 prometheus 指标
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// Sink 实现 smsc.EventSink
type Sink struct {
	connectionsTotal  prometheus.Counter
	activeConnections prometheus.Gauge
	bindsTotal        *prometheus.CounterVec
	decodeErrors      *prometheus.CounterVec
	sequenceAnomalies prometheus.Counter
	timeouts          *prometheus.CounterVec
	pduReceived       *prometheus.CounterVec
	pduSent           *prometheus.CounterVec
	submitted         *prometheus.CounterVec
	delivered         prometheus.Counter
	deliveryFailed    *prometheus.CounterVec
	throttled         prometheus.Counter
}

func NewSink(reg prometheus.Registerer) *Sink {
	s := &Sink{
		connectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smsc_connections_total",
			Help: "Total number of accepted connections",
		}),
		activeConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smsc_connections_active",
			Help: "Number of open connections",
		}),
		bindsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_binds_total",
			Help: "Bind attempts by mode and result status",
		}, []string{"mode", "status"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_decode_errors_total",
			Help: "PDU decode failures by kind",
		}, []string{"kind", "status"}),
		sequenceAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smsc_sequence_anomalies_total",
			Help: "Responses that matched no pending request",
		}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_timeouts_total",
			Help: "Timeouts by what timed out",
		}, []string{"what"}),
		pduReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_pdu_received_total",
			Help: "Inbound PDUs by command",
		}, []string{"command"}),
		pduSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_pdu_sent_total",
			Help: "Outbound PDUs by command and status",
		}, []string{"command", "status"}),
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_messages_submitted_total",
			Help: "submit_sm results by status",
		}, []string{"status"}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smsc_messages_delivered_total",
			Help: "deliver_sm acknowledged by the ESME",
		}),
		deliveryFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smsc_delivery_failures_total",
			Help: "deliver_sm that failed, by reason",
		}, []string{"reason"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smsc_throttled_total",
			Help: "submit_sm rejected with ESME_RTHROTTLED",
		}),
	}
	reg.MustRegister(s.connectionsTotal, s.activeConnections, s.bindsTotal, s.decodeErrors, s.sequenceAnomalies,
		s.timeouts, s.pduReceived, s.pduSent, s.submitted, s.delivered, s.deliveryFailed, s.throttled)
	return s
}

func (s *Sink) ConnectionOpened(conn string, remote string) {
	s.connectionsTotal.Inc()
	s.activeConnections.Inc()
}

func (s *Sink) ConnectionClosed(conn string, systemId string, reason string) {
	s.activeConnections.Dec()
}

func (s *Sink) BindSucceeded(conn string, systemId string, mode string) {
	s.bindsTotal.WithLabelValues(mode, smpp.StatusName(smpp.ESME_ROK)).Inc()
}

func (s *Sink) BindFailed(conn string, systemId string, mode string, status uint32) {
	s.bindsTotal.WithLabelValues(mode, smpp.StatusName(status)).Inc()
}

func (s *Sink) DecodeFailed(conn string, kind string, status uint32) {
	s.decodeErrors.WithLabelValues(kind, smpp.StatusName(status)).Inc()
}

func (s *Sink) SequenceAnomaly(conn string, seq uint32, commandId uint32) {
	s.sequenceAnomalies.Inc()
}

func (s *Sink) TimedOut(conn string, what string) {
	s.timeouts.WithLabelValues(what).Inc()
}

func (s *Sink) PduReceived(conn string, commandId uint32) {
	s.pduReceived.WithLabelValues(smpp.CommandName(commandId)).Inc()
}

func (s *Sink) PduSent(conn string, commandId uint32, status uint32) {
	s.pduSent.WithLabelValues(smpp.CommandName(commandId), smpp.StatusName(status)).Inc()
}

func (s *Sink) Submitted(systemId string, messageId string, status uint32) {
	s.submitted.WithLabelValues(smpp.StatusName(status)).Inc()
}

func (s *Sink) Delivered(systemId string, messageId string) {
	s.delivered.Inc()
}

func (s *Sink) DeliveryFailed(systemId string, messageId string, reason string) {
	s.deliveryFailed.WithLabelValues(reason).Inc()
}

func (s *Sink) Throttled(conn string, systemId string) {
	s.throttled.Inc()
}
