package gosmsc

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

func TestMessage_FromSubmitSm(t *testing.T) {
	sm := smpp.NewSubmitSm(1, "10086", "12345", "hi")
	sm.RegisteredDelivery = 1
	sm.Tlvs = smpp.Tlvs{{Tag: smpp.TAG_USER_MESSAGE_REFERENCE, Value: []byte{0, 1}}}
	msg := FromSubmitSm(sm)
	msg.Id, msg.Owner, msg.Recipient = "abc", "esme1", "esme2"
	t.Logf("%s", msg)

	assert.Equal(t, "10086", msg.Source)
	assert.Equal(t, "12345", msg.Destination)
	assert.Equal(t, smpp.ENROUTE, msg.State)
	assert.False(t, msg.Final())

	dm := msg.ToDeliverSm(7)
	assert.Equal(t, uint32(7), dm.SequenceNumber)
	assert.Equal(t, "hi", dm.Text())
	assert.Equal(t, sm.Tlvs, dm.Tlvs)
}

func TestMessage_LongContent(t *testing.T) {
	msg := &Message{Content: bytes.Repeat([]byte("a"), 300)}
	dm := msg.ToDeliverSm(1)
	assert.Nil(t, dm.ShortMessage)
	assert.Equal(t, 300, len(dm.Payload()))
}

func TestReceiptKey(t *testing.T) {
	sub := smpp.NewSubmitSm(1, "10086", "12345", "hi")
	now := time.Now()
	dr := smpp.NewDeliveryReceipt(2, sub, &smpp.Receipt{Id: "abc", SubmitDate: now, DoneDate: now, State: smpp.DELIVERED})

	key, ok := ReceiptKey("smsc", dr)
	assert.True(t, ok)
	msg := &Message{Id: "abc", Namespace: "smsc", Destination: "12345"}
	assert.Equal(t, msg.Key(), key)

	_, ok = ReceiptKey("smsc", smpp.NewDeliverSm(3, "1", "2", "mo"))
	assert.False(t, ok)
}

func TestMessage_ToReceipt(t *testing.T) {
	now := time.Now()
	sm := smpp.NewSubmitSm(1, "10086", "13800138000", "hello")
	msg := FromSubmitSm(sm)
	msg.Id, msg.Namespace, msg.Owner = "0000ABCD", "ns", "esme1"
	msg.RegisteredDelivery = 1
	msg.SubmittedAt, msg.DoneAt = now, now
	msg.State = smpp.UNDELIVERABLE
	assert.True(t, msg.WantsReceipt())

	r := msg.ToReceipt()
	t.Logf("%s", r)
	assert.Equal(t, "esme1", r.Recipient)
	assert.Equal(t, "13800138000", r.Source)
	assert.Equal(t, "10086", r.Destination)
	assert.Equal(t, smpp.ESM_CLASS_DELIVERY_RECEIPT, r.EsmClass)

	dm := r.ToDeliverSm(3)
	assert.True(t, dm.IsReceipt())
	assert.Equal(t, "0000ABCD", dm.ReceiptedMessageId())
	rpt, err := smpp.ParseReceipt(dm.Text())
	assert.NoError(t, err)
	assert.Equal(t, smpp.UNDELIVERABLE, rpt.State)
	assert.Equal(t, "hello", rpt.Text)

	key, ok := ReceiptKey("ns", dm)
	assert.True(t, ok)
	assert.Equal(t, msg.Key(), key)
}

func TestMessage_WantsReceipt(t *testing.T) {
	m := &Message{RegisteredDelivery: 2, State: smpp.DELIVERED}
	assert.False(t, m.WantsReceipt())
	m.State = smpp.UNDELIVERABLE
	assert.True(t, m.WantsReceipt())
	m.RegisteredDelivery = 0
	assert.False(t, m.WantsReceipt())
}
