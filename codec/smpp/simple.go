package smpp

import "fmt"

// 以下命令只有报文头

type Unbind struct {
	*Header
}

func NewUnbind(seq uint32) *Unbind {
	return &Unbind{Header: &Header{CommandId: UNBIND, SequenceNumber: seq}}
}

func (u *Unbind) Decode(header *Header, body []byte) error {
	return decodeEmpty(&u.Header, header, body, UNBIND)
}

func (u *Unbind) ToResponse(status uint32) Pdu {
	return &UnbindResp{Header: u.respHeader(status)}
}

func (u *Unbind) String() string {
	return fmt.Sprintf("{ Header: %s }", u.Header)
}

type UnbindResp struct {
	*Header
}

func (u *UnbindResp) Decode(header *Header, body []byte) error {
	return decodeEmpty(&u.Header, header, body, UNBIND_RESP)
}

func (u *UnbindResp) String() string {
	return fmt.Sprintf("{ Header: %s }", u.Header)
}

type EnquireLink struct {
	*Header
}

func NewEnquireLink(seq uint32) *EnquireLink {
	return &EnquireLink{Header: &Header{CommandId: ENQUIRE_LINK, SequenceNumber: seq}}
}

func (e *EnquireLink) Decode(header *Header, body []byte) error {
	return decodeEmpty(&e.Header, header, body, ENQUIRE_LINK)
}

func (e *EnquireLink) ToResponse(status uint32) Pdu {
	return &EnquireLinkResp{Header: e.respHeader(status)}
}

func (e *EnquireLink) String() string {
	return fmt.Sprintf("{ Header: %s }", e.Header)
}

type EnquireLinkResp struct {
	*Header
}

func (e *EnquireLinkResp) Decode(header *Header, body []byte) error {
	return decodeEmpty(&e.Header, header, body, ENQUIRE_LINK_RESP)
}

func (e *EnquireLinkResp) String() string {
	return fmt.Sprintf("{ Header: %s }", e.Header)
}

type GenericNack struct {
	*Header
}

func NewGenericNack(seq uint32, status uint32) *GenericNack {
	return &GenericNack{Header: &Header{CommandId: GENERIC_NACK, CommandStatus: status, SequenceNumber: seq}}
}

func (g *GenericNack) Decode(header *Header, body []byte) error {
	return decodeEmpty(&g.Header, header, body, GENERIC_NACK)
}

func (g *GenericNack) String() string {
	return fmt.Sprintf("{ Header: %s }", g.Header)
}

// Raw 可识别但未实现的命令，消息体原样保留
type Raw struct {
	*Header
	Body []byte
}

func (raw *Raw) Encode() []byte {
	w := newWriter()
	w.octets(raw.Body)
	return w.frame(raw.Header)
}

func (raw *Raw) Decode(header *Header, body []byte) error {
	if header == nil {
		return checkHeader(header)
	}
	raw.Header = header
	if len(body) > 0 {
		raw.Body = make([]byte, len(body))
		copy(raw.Body, body)
	}
	return nil
}

func (raw *Raw) String() string {
	return fmt.Sprintf("{ Header: %s, body: %x }", raw.Header, raw.Body)
}

func decodeEmpty(dst **Header, header *Header, body []byte, id uint32) error {
	if err := checkHeader(header, id); err != nil {
		return err
	}
	*dst = header
	if len(body) != 0 {
		return &fieldError{field: "body", status: ESME_RINVCMDLEN, err: errTrailing}
	}
	return nil
}
