package smpp

import (
	"fmt"
)

// DeliverSm SMSC 推送给 ESME 的上行短信或状态报告
type DeliverSm struct {
	*Header
	MessageFields
}

func NewDeliverSm(seq uint32, src, dest string, text string) *DeliverSm {
	dm := &DeliverSm{Header: &Header{CommandId: DELIVER_SM, SequenceNumber: seq}}
	dm.SourceAddr = src
	dm.DestinationAddr = dest
	coding, data := EncodeText(text)
	dm.DataCoding = coding
	dm.SetPayload(data)
	return dm
}

// NewDeliveryReceipt 状态报告：源地址为原短信的目的地址，目的地址为原短信的源地址
func NewDeliveryReceipt(seq uint32, sub *SubmitSm, receipt *Receipt) *DeliverSm {
	dm := &DeliverSm{Header: &Header{CommandId: DELIVER_SM, SequenceNumber: seq}}
	dm.ServiceType = sub.ServiceType
	dm.SourceAddrTon, dm.SourceAddrNpi, dm.SourceAddr = sub.DestAddrTon, sub.DestAddrNpi, sub.DestinationAddr
	dm.DestAddrTon, dm.DestAddrNpi, dm.DestinationAddr = sub.SourceAddrTon, sub.SourceAddrNpi, sub.SourceAddr
	dm.EsmClass = ESM_CLASS_DELIVERY_RECEIPT
	dm.ShortMessage = []byte(receipt.String())
	dm.Tlvs = Tlvs{
		{Tag: TAG_RECEIPTED_MESSAGE_ID, Value: append([]byte(receipt.Id), 0)},
		{Tag: TAG_MESSAGE_STATE, Value: []byte{receipt.State}},
	}
	return dm
}

func (d *DeliverSm) Encode() []byte {
	w := newWriter()
	d.encode(w)
	return w.frame(d.Header)
}

func (d *DeliverSm) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, DELIVER_SM); err != nil {
		return err
	}
	d.Header = header
	r := newReader(body)
	d.decode(r)
	return r.error()
}

func (d *DeliverSm) String() string {
	return fmt.Sprintf("{ Header: %s, %s }", d.Header, d.MessageFields.String())
}

func (d *DeliverSm) ToResponse(status uint32) Pdu {
	return &DeliverSmResp{Header: d.respHeader(status)}
}

// IsReceipt esm_class 标明为状态报告
func (d *DeliverSm) IsReceipt() bool {
	return d.EsmClass&0x3c == ESM_CLASS_DELIVERY_RECEIPT
}

// ReceiptedMessageId 状态报告对应的原短信ID，优先取TLV，其次解析文本
func (d *DeliverSm) ReceiptedMessageId() string {
	if v, ok := d.Tlvs.Get(TAG_RECEIPTED_MESSAGE_ID); ok {
		return TrimStr(v)
	}
	if rpt, err := ParseReceipt(string(d.Payload())); err == nil {
		return rpt.Id
	}
	return ""
}

// DeliverSmResp message_id 字段未使用，恒为空串
type DeliverSmResp struct {
	*Header
	MessageId string
}

func (r *DeliverSmResp) Encode() []byte {
	w := newWriter()
	w.cstring(r.MessageId)
	return w.frame(r.Header)
}

func (r *DeliverSmResp) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, DELIVER_SM_RESP); err != nil {
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

func (r *DeliverSmResp) String() string {
	return fmt.Sprintf("{ Header: %s, messageId: %s }", r.Header, r.MessageId)
}

func TrimStr(bts []byte) string {
	for i, b := range bts {
		if b == 0 {
			return string(bts[:i])
		}
	}
	return string(bts)
}
