package smpp

import "fmt"

// QuerySm 查询已提交短信的状态
type QuerySm struct {
	*Header
	MessageId     string
	SourceAddrTon uint8
	SourceAddrNpi uint8
	SourceAddr    string
}

func NewQuerySm(seq uint32, messageId string, src string) *QuerySm {
	return &QuerySm{Header: &Header{CommandId: QUERY_SM, SequenceNumber: seq}, MessageId: messageId, SourceAddr: src}
}

func (q *QuerySm) Encode() []byte {
	w := newWriter()
	w.cstring(q.MessageId)
	w.u8(q.SourceAddrTon)
	w.u8(q.SourceAddrNpi)
	w.cstring(q.SourceAddr)
	return w.frame(q.Header)
}

func (q *QuerySm) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, QUERY_SM); err != nil {
		return err
	}
	q.Header = header
	r := newReader(body)
	q.MessageId = r.cstring("message_id", LEN_MESSAGE_ID, ESME_RINVMSGID)
	q.SourceAddrTon = r.u8("source_addr_ton")
	q.SourceAddrNpi = r.u8("source_addr_npi")
	q.SourceAddr = r.cstring("source_addr", LEN_ADDRESS, ESME_RINVSRCADR)
	r.end()
	return r.error()
}

func (q *QuerySm) String() string {
	return fmt.Sprintf("{ Header: %s, messageId: %s, src: %d/%d/%s }",
		q.Header, q.MessageId, q.SourceAddrTon, q.SourceAddrNpi, q.SourceAddr)
}

func (q *QuerySm) ToResponse(status uint32) Pdu {
	return &QuerySmResp{Header: q.respHeader(status)}
}

type QuerySmResp struct {
	*Header
	MessageId    string
	FinalDate    string
	MessageState uint8
	ErrorCode    uint8
}

func (r *QuerySmResp) Encode() []byte {
	w := newWriter()
	if r.CommandStatus == ESME_ROK || r.MessageId != "" {
		w.cstring(r.MessageId)
		w.cstring(r.FinalDate)
		w.u8(r.MessageState)
		w.u8(r.ErrorCode)
	}
	return w.frame(r.Header)
}

func (r *QuerySmResp) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, QUERY_SM_RESP); err != nil {
		return err
	}
	r.Header = header
	if len(body) == 0 {
		return nil
	}
	rd := newReader(body)
	r.MessageId = rd.cstring("message_id", LEN_MESSAGE_ID, ESME_RINVMSGID)
	r.FinalDate = rd.cstring("final_date", LEN_TIME, ESME_RINVCMDLEN)
	r.MessageState = rd.u8("message_state")
	r.ErrorCode = rd.u8("error_code")
	rd.end()
	return rd.error()
}

func (r *QuerySmResp) String() string {
	return fmt.Sprintf("{ Header: %s, messageId: %s, finalDate: %s, state: %s, errorCode: %d }",
		r.Header, r.MessageId, r.FinalDate, MessageStateMap[r.MessageState], r.ErrorCode)
}

// CancelSm 撤销尚未下发的短信
type CancelSm struct {
	*Header
	ServiceType     string
	MessageId       string
	SourceAddrTon   uint8
	SourceAddrNpi   uint8
	SourceAddr      string
	DestAddrTon     uint8
	DestAddrNpi     uint8
	DestinationAddr string
}

func NewCancelSm(seq uint32, messageId string, src, dest string) *CancelSm {
	return &CancelSm{Header: &Header{CommandId: CANCEL_SM, SequenceNumber: seq},
		MessageId: messageId, SourceAddr: src, DestinationAddr: dest}
}

func (c *CancelSm) Encode() []byte {
	w := newWriter()
	w.cstring(c.ServiceType)
	w.cstring(c.MessageId)
	w.u8(c.SourceAddrTon)
	w.u8(c.SourceAddrNpi)
	w.cstring(c.SourceAddr)
	w.u8(c.DestAddrTon)
	w.u8(c.DestAddrNpi)
	w.cstring(c.DestinationAddr)
	return w.frame(c.Header)
}

func (c *CancelSm) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, CANCEL_SM); err != nil {
		return err
	}
	c.Header = header
	r := newReader(body)
	c.ServiceType = r.cstring("service_type", LEN_SERVICE_TYPE, ESME_RINVSERTYP)
	c.MessageId = r.cstring("message_id", LEN_MESSAGE_ID, ESME_RINVMSGID)
	c.SourceAddrTon = r.u8("source_addr_ton")
	c.SourceAddrNpi = r.u8("source_addr_npi")
	c.SourceAddr = r.cstring("source_addr", LEN_ADDRESS, ESME_RINVSRCADR)
	c.DestAddrTon = r.u8("dest_addr_ton")
	c.DestAddrNpi = r.u8("dest_addr_npi")
	c.DestinationAddr = r.cstring("destination_addr", LEN_ADDRESS, ESME_RINVDSTADR)
	r.end()
	return r.error()
}

func (c *CancelSm) String() string {
	return fmt.Sprintf("{ Header: %s, serviceType: %s, messageId: %s, src: %d/%d/%s, dest: %d/%d/%s }",
		c.Header, c.ServiceType, c.MessageId, c.SourceAddrTon, c.SourceAddrNpi, c.SourceAddr,
		c.DestAddrTon, c.DestAddrNpi, c.DestinationAddr)
}

func (c *CancelSm) ToResponse(status uint32) Pdu {
	return &CancelSmResp{Header: c.respHeader(status)}
}

type CancelSmResp struct {
	*Header
}

func (r *CancelSmResp) Encode() []byte {
	return r.Header.Encode()
}

func (r *CancelSmResp) Decode(header *Header, body []byte) error {
	return decodeEmpty(&r.Header, header, body, CANCEL_SM_RESP)
}

func (r *CancelSmResp) String() string {
	return fmt.Sprintf("{ Header: %s }", r.Header)
}
