package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

func TestSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewSink(reg)

	s.ConnectionOpened("c1", "127.0.0.1:5000")
	s.ConnectionOpened("c2", "127.0.0.1:5001")
	s.ConnectionClosed("c2", "", "peer closed")
	assert.Equal(t, 2.0, testutil.ToFloat64(s.connectionsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.activeConnections))

	s.BindSucceeded("c1", "esme", "Transmitter")
	s.BindFailed("c1", "esme", "Transmitter", smpp.ESME_RINVPASWD)
	s.BindFailed("c1", "esme", "Transmitter", smpp.ESME_RINVPASWD)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.bindsTotal.WithLabelValues("Transmitter", "ESME_ROK")))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.bindsTotal.WithLabelValues("Transmitter", "ESME_RINVPASWD")))

	s.PduReceived("c1", smpp.SUBMIT_SM)
	s.PduSent("c1", smpp.SUBMIT_SM_RESP, smpp.ESME_ROK)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.pduReceived.WithLabelValues("SUBMIT_SM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.pduSent.WithLabelValues("SUBMIT_SM_RESP", "ESME_ROK")))

	s.TimedOut("c1", "enquire_link")
	s.SequenceAnomaly("c1", 7, smpp.DELIVER_SM_RESP)
	s.Throttled("c1", "esme")
	s.DeliveryFailed("esme", "m1", "timeout")
	assert.Equal(t, 1.0, testutil.ToFloat64(s.timeouts.WithLabelValues("enquire_link")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.sequenceAnomalies))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.throttled))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.deliveryFailed.WithLabelValues("timeout")))

	n, err := testutil.GatherAndCount(reg)
	assert.NoError(t, err)
	assert.Greater(t, n, 0)
}
