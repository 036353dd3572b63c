package smpp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Pdu 所有SMPP命令的公共接口，具体命令均嵌入 *Header
type Pdu interface {
	Head() *Header
	// Encode 编码整个PDU，并回填 command_length
	Encode() []byte
	// Decode 从消息体（不含报文头）解码，不引用 body 的底层数组
	Decode(header *Header, body []byte) error
	String() string
}

// Request 需要对端回复的请求PDU
type Request interface {
	Pdu
	ToResponse(status uint32) Pdu
}

// newPdu 根据命令ID创建空的PDU，未知命令返回nil
func newPdu(id uint32) Pdu {
	switch id {
	case BIND_RECEIVER, BIND_TRANSMITTER, BIND_TRANSCEIVER:
		return &Bind{}
	case BIND_RECEIVER_RESP, BIND_TRANSMITTER_RESP, BIND_TRANSCEIVER_RESP:
		return &BindResp{}
	case SUBMIT_SM:
		return &SubmitSm{}
	case SUBMIT_SM_RESP:
		return &SubmitSmResp{}
	case DELIVER_SM:
		return &DeliverSm{}
	case DELIVER_SM_RESP:
		return &DeliverSmResp{}
	case QUERY_SM:
		return &QuerySm{}
	case QUERY_SM_RESP:
		return &QuerySmResp{}
	case CANCEL_SM:
		return &CancelSm{}
	case CANCEL_SM_RESP:
		return &CancelSmResp{}
	case UNBIND:
		return &Unbind{}
	case UNBIND_RESP:
		return &UnbindResp{}
	case ENQUIRE_LINK:
		return &EnquireLink{}
	case ENQUIRE_LINK_RESP:
		return &EnquireLinkResp{}
	case GENERIC_NACK:
		return &GenericNack{}
	case REPLACE_SM, REPLACE_SM_RESP, SUBMIT_MULTI, SUBMIT_MULTI_RESP,
		DATA_SM, DATA_SM_RESP, OUTBIND, ALERT_NOTIFICATION:
		// 可识别但不支持的命令，原样保留消息体
		return &Raw{}
	}
	return nil
}

// Supported 是否为本SMSC实现了语义的命令
func Supported(id uint32) bool {
	p := newPdu(id)
	if p == nil {
		return false
	}
	_, raw := p.(*Raw)
	return !raw
}

// Decode 从流缓冲区头部解析一个PDU，返回消耗的字节数。
// 字节不足时返回 ErrIncomplete 且不消耗任何字节；
// 命令ID未知或消息体非法时消耗整个PDU，以保持字节流对齐。
func Decode(buf []byte, maxLen uint32) (Pdu, int, error) {
	if len(buf) < 4 {
		return nil, 0, ErrIncomplete
	}
	if maxLen == 0 || maxLen > MAX_PDU_SIZE {
		maxLen = MAX_PDU_SIZE
	}
	length := binary.BigEndian.Uint32(buf[0:4])
	if length < HEAD_LENGTH || length > maxLen {
		e := &DecodeError{Kind: InvalidCommandLength, Status: ESME_RINVCMDLEN,
			Err: fmt.Errorf("command_length %d out of range [%d, %d]", length, HEAD_LENGTH, maxLen)}
		if len(buf) >= HEAD_LENGTH {
			e.Header = &Header{}
			_ = e.Header.Decode(buf)
		}
		return nil, 0, e
	}
	if uint32(len(buf)) < length {
		return nil, 0, ErrIncomplete
	}

	n := int(length)
	header := &Header{}
	_ = header.Decode(buf)
	pdu := newPdu(header.CommandId)
	if pdu == nil {
		return nil, n, &DecodeError{Kind: InvalidCommandId, Header: header, Status: ESME_RINVCMDID}
	}
	if err := pdu.Decode(header, buf[HEAD_LENGTH:n]); err != nil {
		e := &DecodeError{Kind: MalformedBody, Header: header, Status: ESME_RSYSERR, Err: err}
		var fe *fieldError
		if errors.As(err, &fe) {
			e.Status = fe.status
			e.Field = fe.field
			e.Err = fe.err
		}
		return nil, n, e
	}
	return pdu, n, nil
}

// ResponseFor 生成请求对应的错误响应；没有对应响应类型时返回 generic_nack
func ResponseFor(header *Header, status uint32) Pdu {
	if header.IsResponse() || !Supported(header.CommandId) {
		return NewGenericNack(header.SequenceNumber, status)
	}
	resp := newPdu(header.CommandId | RESP_MASK)
	if resp == nil {
		return NewGenericNack(header.SequenceNumber, status)
	}
	h := header.respHeader(status)
	switch r := resp.(type) {
	case *BindResp:
		r.Header = h
	case *SubmitSmResp:
		r.Header = h
	case *DeliverSmResp:
		r.Header = h
	case *QuerySmResp:
		r.Header = h
	case *CancelSmResp:
		r.Header = h
	case *UnbindResp:
		r.Header = h
	case *EnquireLinkResp:
		r.Header = h
	default:
		return NewGenericNack(header.SequenceNumber, status)
	}
	return resp
}

func checkHeader(header *Header, ids ...uint32) error {
	if header == nil {
		return errors.New("smpp: nil header")
	}
	for _, id := range ids {
		if header.CommandId == id {
			return nil
		}
	}
	return fmt.Errorf("smpp: unexpected command %s", CommandName(header.CommandId))
}
