package gosmsc

import (
	"fmt"
	"time"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// Message SMSC内部流转的短信：ESME 提交的下行短信，或等待推送给 ESME 的上行短信/状态报告
type Message struct {
	Id        string // SMSC 分配的 message_id
	Namespace string // message_id 的命名空间，状态报告据此找回提交方
	Owner     string // 提交方 system_id
	Recipient string // 接收方 system_id，推送给以它绑定的 receiver / transceiver

	ServiceType        string
	SourceAddrTon      uint8
	SourceAddrNpi      uint8
	Source             string
	DestAddrTon        uint8
	DestAddrNpi        uint8
	Destination        string
	EsmClass           uint8
	RegisteredDelivery uint8
	DataCoding         uint8
	Content            []byte
	Tlvs               smpp.Tlvs

	State       uint8 // message_state
	ErrorCode   uint8
	SubmittedAt time.Time
	DoneAt      time.Time
	Attempts    int // 推送失败的次数
}

// FromSubmitSm 由 submit_sm 生成下行短信记录
func FromSubmitSm(sm *smpp.SubmitSm) *Message {
	return &Message{
		ServiceType:        sm.ServiceType,
		SourceAddrTon:      sm.SourceAddrTon,
		SourceAddrNpi:      sm.SourceAddrNpi,
		Source:             sm.SourceAddr,
		DestAddrTon:        sm.DestAddrTon,
		DestAddrNpi:        sm.DestAddrNpi,
		Destination:        sm.DestinationAddr,
		EsmClass:           sm.EsmClass,
		RegisteredDelivery: sm.RegisteredDelivery,
		DataCoding:         sm.DataCoding,
		Content:            sm.Payload(),
		Tlvs:               sm.Tlvs,
		State:              smpp.ENROUTE,
	}
}

// FromDeliverSm 由外部生成的 deliver_sm（如状态报告）生成待推送消息
func FromDeliverSm(dm *smpp.DeliverSm) *Message {
	return &Message{
		ServiceType:        dm.ServiceType,
		SourceAddrTon:      dm.SourceAddrTon,
		SourceAddrNpi:      dm.SourceAddrNpi,
		Source:             dm.SourceAddr,
		DestAddrTon:        dm.DestAddrTon,
		DestAddrNpi:        dm.DestAddrNpi,
		Destination:        dm.DestinationAddr,
		EsmClass:           dm.EsmClass,
		RegisteredDelivery: dm.RegisteredDelivery,
		DataCoding:         dm.DataCoding,
		Content:            dm.Payload(),
		Tlvs:               dm.Tlvs,
		State:              smpp.ENROUTE,
	}
}

// ToDeliverSm 生成推送给接收方的 deliver_sm
func (m *Message) ToDeliverSm(seq uint32) *smpp.DeliverSm {
	dm := &smpp.DeliverSm{Header: &smpp.Header{CommandId: smpp.DELIVER_SM, SequenceNumber: seq}}
	dm.ServiceType = m.ServiceType
	dm.SourceAddrTon, dm.SourceAddrNpi, dm.SourceAddr = m.SourceAddrTon, m.SourceAddrNpi, m.Source
	dm.DestAddrTon, dm.DestAddrNpi, dm.DestinationAddr = m.DestAddrTon, m.DestAddrNpi, m.Destination
	dm.EsmClass = m.EsmClass
	dm.RegisteredDelivery = m.RegisteredDelivery
	dm.DataCoding = m.DataCoding
	dm.SetPayload(m.Content)
	for _, t := range m.Tlvs {
		if t.Tag != smpp.TAG_MESSAGE_PAYLOAD {
			dm.Tlvs = append(dm.Tlvs, t)
		}
	}
	return dm
}

// Final 是否已处于终态
func (m *Message) Final() bool {
	switch m.State {
	case smpp.DELIVERED, smpp.EXPIRED, smpp.DELETED, smpp.UNDELIVERABLE, smpp.REJECTED:
		return true
	}
	return false
}

// WantsReceipt 按 registered_delivery 与当前终态判断是否需要状态报告
func (m *Message) WantsReceipt() bool {
	switch m.RegisteredDelivery & smpp.REGISTERED_DELIVERY_MASK {
	case 1:
		return true
	case 2:
		return m.State != smpp.DELIVERED
	}
	return false
}

// ToReceipt 生成推送给提交方的状态报告
func (m *Message) ToReceipt() *Message {
	dlvrd := 0
	if m.State == smpp.DELIVERED {
		dlvrd = 1
	}
	rpt := &smpp.Receipt{
		Id:         m.Id,
		Sub:        1,
		Dlvrd:      dlvrd,
		SubmitDate: m.SubmittedAt,
		DoneDate:   m.DoneAt,
		State:      m.State,
		Err:        int(m.ErrorCode),
		Text:       smpp.DecodeText(m.DataCoding, m.Content),
	}
	sub := &smpp.SubmitSm{Header: &smpp.Header{CommandId: smpp.SUBMIT_SM}}
	sub.ServiceType = m.ServiceType
	sub.SourceAddrTon, sub.SourceAddrNpi, sub.SourceAddr = m.SourceAddrTon, m.SourceAddrNpi, m.Source
	sub.DestAddrTon, sub.DestAddrNpi, sub.DestinationAddr = m.DestAddrTon, m.DestAddrNpi, m.Destination

	r := FromDeliverSm(smpp.NewDeliveryReceipt(0, sub, rpt))
	r.Namespace = m.Namespace
	r.Recipient = m.Owner
	return r
}

func (m *Message) Key() MessageKey {
	return MessageKey{Namespace: m.Namespace, MessageId: m.Id, Destination: m.Destination}
}

func (m *Message) String() string {
	return fmt.Sprintf("{ id: %s, owner: %s, recipient: %s, src: %s, dest: %s, esmClass: %#x, state: %s, attempts: %d, text: %s }",
		m.Id, m.Owner, m.Recipient, m.Source, m.Destination, m.EsmClass, smpp.MessageStateMap[m.State], m.Attempts,
		smpp.DecodeText(m.DataCoding, m.Content))
}

// MessageKey 用外部系统给出的 message_id 唯一标识一条短信。
// message_id 不够唯一时靠 Destination 区分：状态报告的源地址即原短信的目的地址。
type MessageKey struct {
	Namespace   string
	MessageId   string
	Destination string
}

// ReceiptKey 由状态报告生成 MessageKey，没有 receipted_message_id 时返回 false
func ReceiptKey(namespace string, dm *smpp.DeliverSm) (MessageKey, bool) {
	id := dm.ReceiptedMessageId()
	if id == "" {
		return MessageKey{}, false
	}
	return MessageKey{Namespace: namespace, MessageId: id, Destination: dm.SourceAddr}, true
}
