package smpp

import (
	"encoding/binary"
	"fmt"
)

const (
	HEAD_LENGTH  = 16    // 报文头长度
	MAX_PDU_SIZE = 65536 // 协议允许的最大报文长度

	RESP_MASK = uint32(0x80000000) // 响应命令 = 请求命令 | RESP_MASK
)

const (
	GENERIC_NACK          = uint32(0x80000000)
	BIND_RECEIVER         = uint32(0x00000001)
	BIND_RECEIVER_RESP    = uint32(0x80000001)
	BIND_TRANSMITTER      = uint32(0x00000002)
	BIND_TRANSMITTER_RESP = uint32(0x80000002)
	QUERY_SM              = uint32(0x00000003)
	QUERY_SM_RESP         = uint32(0x80000003)
	SUBMIT_SM             = uint32(0x00000004)
	SUBMIT_SM_RESP        = uint32(0x80000004)
	DELIVER_SM            = uint32(0x00000005)
	DELIVER_SM_RESP       = uint32(0x80000005)
	UNBIND                = uint32(0x00000006)
	UNBIND_RESP           = uint32(0x80000006)
	REPLACE_SM            = uint32(0x00000007)
	REPLACE_SM_RESP       = uint32(0x80000007)
	CANCEL_SM             = uint32(0x00000008)
	CANCEL_SM_RESP        = uint32(0x80000008)
	BIND_TRANSCEIVER      = uint32(0x00000009)
	BIND_TRANSCEIVER_RESP = uint32(0x80000009)
	OUTBIND               = uint32(0x0000000B)
	ENQUIRE_LINK          = uint32(0x00000015)
	ENQUIRE_LINK_RESP     = uint32(0x80000015)
	SUBMIT_MULTI          = uint32(0x00000021)
	SUBMIT_MULTI_RESP     = uint32(0x80000021)
	ALERT_NOTIFICATION    = uint32(0x00000102)
	DATA_SM               = uint32(0x00000103)
	DATA_SM_RESP          = uint32(0x80000103)
)

var CommandMap = map[uint32]string{
	GENERIC_NACK:          "GENERIC_NACK",
	BIND_RECEIVER:         "BIND_RECEIVER",
	BIND_RECEIVER_RESP:    "BIND_RECEIVER_RESP",
	BIND_TRANSMITTER:      "BIND_TRANSMITTER",
	BIND_TRANSMITTER_RESP: "BIND_TRANSMITTER_RESP",
	QUERY_SM:              "QUERY_SM",
	QUERY_SM_RESP:         "QUERY_SM_RESP",
	SUBMIT_SM:             "SUBMIT_SM",
	SUBMIT_SM_RESP:        "SUBMIT_SM_RESP",
	DELIVER_SM:            "DELIVER_SM",
	DELIVER_SM_RESP:       "DELIVER_SM_RESP",
	UNBIND:                "UNBIND",
	UNBIND_RESP:           "UNBIND_RESP",
	REPLACE_SM:            "REPLACE_SM",
	REPLACE_SM_RESP:       "REPLACE_SM_RESP",
	CANCEL_SM:             "CANCEL_SM",
	CANCEL_SM_RESP:        "CANCEL_SM_RESP",
	BIND_TRANSCEIVER:      "BIND_TRANSCEIVER",
	BIND_TRANSCEIVER_RESP: "BIND_TRANSCEIVER_RESP",
	OUTBIND:               "OUTBIND",
	ENQUIRE_LINK:          "ENQUIRE_LINK",
	ENQUIRE_LINK_RESP:     "ENQUIRE_LINK_RESP",
	SUBMIT_MULTI:          "SUBMIT_MULTI",
	SUBMIT_MULTI_RESP:     "SUBMIT_MULTI_RESP",
	ALERT_NOTIFICATION:    "ALERT_NOTIFICATION",
	DATA_SM:               "DATA_SM",
	DATA_SM_RESP:          "DATA_SM_RESP",
}

// Header SMPP 报文头，所有字段均为网络字节序
type Header struct {
	CommandLength  uint32 // 报文总长度，含报文头
	CommandId      uint32
	CommandStatus  uint32
	SequenceNumber uint32
}

// Encode 仅编码报文头，用于无消息体的PDU
func (header *Header) Encode() []byte {
	header.CommandLength = HEAD_LENGTH
	frame := make([]byte, HEAD_LENGTH)
	header.put(frame)
	return frame
}

func (header *Header) put(frame []byte) {
	binary.BigEndian.PutUint32(frame[0:4], header.CommandLength)
	binary.BigEndian.PutUint32(frame[4:8], header.CommandId)
	binary.BigEndian.PutUint32(frame[8:12], header.CommandStatus)
	binary.BigEndian.PutUint32(frame[12:16], header.SequenceNumber)
}

func (header *Header) Decode(frame []byte) error {
	if len(frame) < HEAD_LENGTH {
		return ErrIncomplete
	}
	header.CommandLength = binary.BigEndian.Uint32(frame[0:4])
	header.CommandId = binary.BigEndian.Uint32(frame[4:8])
	header.CommandStatus = binary.BigEndian.Uint32(frame[8:12])
	header.SequenceNumber = binary.BigEndian.Uint32(frame[12:16])
	return nil
}

// Head 供嵌入了 *Header 的PDU实现 Pdu 接口
func (header *Header) Head() *Header {
	return header
}

func (header *Header) IsResponse() bool {
	return header.CommandId&RESP_MASK != 0
}

func (header *Header) String() string {
	return fmt.Sprintf("{ Length: %d, Command: %s, Status: %s, Seq: %d }",
		header.CommandLength, CommandName(header.CommandId), StatusName(header.CommandStatus), header.SequenceNumber)
}

// respHeader 根据请求报文头生成响应报文头，序号原样带回
func (header *Header) respHeader(status uint32) *Header {
	return &Header{
		CommandId:      header.CommandId | RESP_MASK,
		CommandStatus:  status,
		SequenceNumber: header.SequenceNumber,
	}
}

func CommandName(id uint32) string {
	if name, ok := CommandMap[id]; ok {
		return name
	}
	return fmt.Sprintf("UNKNOWN(%#08x)", id)
}
