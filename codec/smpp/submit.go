package smpp

import (
	"fmt"
	"strings"
)

// MessageFields submit_sm 与 deliver_sm 相同的消息体布局
type MessageFields struct {
	ServiceType          string
	SourceAddrTon        uint8
	SourceAddrNpi        uint8
	SourceAddr           string
	DestAddrTon          uint8
	DestAddrNpi          uint8
	DestinationAddr      string
	EsmClass             uint8
	ProtocolId           uint8
	PriorityFlag         uint8
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   uint8
	ReplaceIfPresentFlag uint8
	DataCoding           uint8
	SmDefaultMsgId       uint8
	ShortMessage         []byte // sm_length 由其长度决定
	Tlvs                 Tlvs
}

func (m *MessageFields) encode(w *writer) {
	w.cstring(m.ServiceType)
	w.u8(m.SourceAddrTon)
	w.u8(m.SourceAddrNpi)
	w.cstring(m.SourceAddr)
	w.u8(m.DestAddrTon)
	w.u8(m.DestAddrNpi)
	w.cstring(m.DestinationAddr)
	w.u8(m.EsmClass)
	w.u8(m.ProtocolId)
	w.u8(m.PriorityFlag)
	w.cstring(m.ScheduleDeliveryTime)
	w.cstring(m.ValidityPeriod)
	w.u8(m.RegisteredDelivery)
	w.u8(m.ReplaceIfPresentFlag)
	w.u8(m.DataCoding)
	w.u8(m.SmDefaultMsgId)
	sm, tlvs := m.ShortMessage, m.Tlvs
	if len(sm) > MAX_SHORT_MESSAGE {
		// sm_length 只有一个字节，超长内容改放 message_payload
		tlvs = append(Tlvs(nil), m.Tlvs...)
		tlvs.Set(TAG_MESSAGE_PAYLOAD, sm)
		sm = nil
	}
	w.u8(uint8(len(sm)))
	w.octets(sm)
	w.tlvs(tlvs)
}

// SetPayload 内容不超过 MAX_SHORT_MESSAGE 时放入 short_message，否则放入 message_payload
func (m *MessageFields) SetPayload(data []byte) {
	if len(data) > MAX_SHORT_MESSAGE {
		m.ShortMessage = nil
		m.Tlvs.Set(TAG_MESSAGE_PAYLOAD, data)
		return
	}
	m.ShortMessage = data
}

func (m *MessageFields) decode(r *reader) {
	m.ServiceType = r.cstring("service_type", LEN_SERVICE_TYPE, ESME_RINVSERTYP)
	m.SourceAddrTon = r.u8("source_addr_ton")
	m.SourceAddrNpi = r.u8("source_addr_npi")
	m.SourceAddr = r.cstring("source_addr", LEN_ADDRESS, ESME_RINVSRCADR)
	m.DestAddrTon = r.u8("dest_addr_ton")
	m.DestAddrNpi = r.u8("dest_addr_npi")
	m.DestinationAddr = r.cstring("destination_addr", LEN_ADDRESS, ESME_RINVDSTADR)
	m.EsmClass = r.u8("esm_class")
	m.ProtocolId = r.u8("protocol_id")
	m.PriorityFlag = r.u8("priority_flag")
	m.ScheduleDeliveryTime = r.cstring("schedule_delivery_time", LEN_TIME, ESME_RINVSCHED)
	m.ValidityPeriod = r.cstring("validity_period", LEN_TIME, ESME_RINVEXPIRY)
	m.RegisteredDelivery = r.u8("registered_delivery")
	m.ReplaceIfPresentFlag = r.u8("replace_if_present_flag")
	m.DataCoding = r.u8("data_coding")
	m.SmDefaultMsgId = r.u8("sm_default_msg_id")
	smLength := int(r.u8("sm_length"))
	if smLength > MAX_SHORT_MESSAGE {
		r.fail("sm_length", ESME_RINVMSGLEN, errTooLong)
	}
	m.ShortMessage = r.octets("short_message", smLength, ESME_RINVMSGLEN)
	m.Tlvs = r.tlvs()
}

// Payload 优先取 short_message，为空时取 message_payload
func (m *MessageFields) Payload() []byte {
	if len(m.ShortMessage) > 0 {
		return m.ShortMessage
	}
	if v, ok := m.Tlvs.Get(TAG_MESSAGE_PAYLOAD); ok {
		return v
	}
	return nil
}

func (m *MessageFields) Text() string {
	return DecodeText(m.DataCoding, m.Payload())
}

func (m *MessageFields) String() string {
	return fmt.Sprintf("serviceType: %s, src: %d/%d/%s, dest: %d/%d/%s, esmClass: %#x, pid: %d, priority: %d, "+
		"schedule: %s, validity: %s, registeredDelivery: %d, replace: %d, dataCoding: %d, defaultMsgId: %d, "+
		"smLength: %d, text: %s, tlvs: %s",
		m.ServiceType, m.SourceAddrTon, m.SourceAddrNpi, m.SourceAddr, m.DestAddrTon, m.DestAddrNpi, m.DestinationAddr,
		m.EsmClass, m.ProtocolId, m.PriorityFlag, m.ScheduleDeliveryTime, m.ValidityPeriod,
		m.RegisteredDelivery, m.ReplaceIfPresentFlag, m.DataCoding, m.SmDefaultMsgId,
		len(m.ShortMessage), strings.ReplaceAll(m.Text(), "\n", " "), m.Tlvs)
}

// SubmitSm ESME 提交的下行短信
type SubmitSm struct {
	*Header
	MessageFields
}

func NewSubmitSm(seq uint32, src, dest string, text string) *SubmitSm {
	sm := &SubmitSm{Header: &Header{CommandId: SUBMIT_SM, SequenceNumber: seq}}
	sm.SourceAddr = src
	sm.DestinationAddr = dest
	coding, data := EncodeText(text)
	sm.DataCoding = coding
	sm.SetPayload(data)
	return sm
}

func (s *SubmitSm) Encode() []byte {
	w := newWriter()
	s.encode(w)
	return w.frame(s.Header)
}

func (s *SubmitSm) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, SUBMIT_SM); err != nil {
		return err
	}
	s.Header = header
	r := newReader(body)
	s.decode(r)
	return r.error()
}

func (s *SubmitSm) String() string {
	return fmt.Sprintf("{ Header: %s, %s }", s.Header, s.MessageFields.String())
}

// ToResponse message_id 由调用方填写
func (s *SubmitSm) ToResponse(status uint32) Pdu {
	return &SubmitSmResp{Header: s.respHeader(status)}
}

// WantsReceipt registered_delivery 要求本次提交的状态报告
func (s *SubmitSm) WantsReceipt(delivered bool) bool {
	switch s.RegisteredDelivery & REGISTERED_DELIVERY_MASK {
	case 1:
		return true
	case 2:
		return !delivered
	}
	return false
}

// SubmitSmResp 成功时携带SMSC分配的 message_id；失败时没有消息体
type SubmitSmResp struct {
	*Header
	MessageId string
}

func (r *SubmitSmResp) Encode() []byte {
	w := newWriter()
	if r.CommandStatus == ESME_ROK || r.MessageId != "" {
		w.cstring(r.MessageId)
	}
	return w.frame(r.Header)
}

func (r *SubmitSmResp) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, SUBMIT_SM_RESP); err != nil {
		return err
	}
	r.Header = header
	if len(body) == 0 {
		return nil
	}
	rd := newReader(body)
	r.MessageId = rd.cstring("message_id", LEN_MESSAGE_ID, ESME_RINVMSGID)
	rd.end()
	return rd.error()
}

func (r *SubmitSmResp) String() string {
	return fmt.Sprintf("{ Header: %s, messageId: %s }", r.Header, r.MessageId)
}
