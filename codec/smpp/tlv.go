package smpp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
)

// 可选参数 Tag
const (
	TAG_DEST_ADDR_SUBUNIT       = uint16(0x0005)
	TAG_SOURCE_ADDR_SUBUNIT     = uint16(0x000D)
	TAG_PAYLOAD_TYPE            = uint16(0x0019)
	TAG_ADDITIONAL_STATUS_INFO  = uint16(0x001D)
	TAG_RECEIPTED_MESSAGE_ID    = uint16(0x001E)
	TAG_USER_MESSAGE_REFERENCE  = uint16(0x0204)
	TAG_SOURCE_PORT             = uint16(0x020A)
	TAG_DESTINATION_PORT        = uint16(0x020B)
	TAG_SAR_MSG_REF_NUM         = uint16(0x020C)
	TAG_LANGUAGE_INDICATOR      = uint16(0x020D)
	TAG_SAR_TOTAL_SEGMENTS      = uint16(0x020E)
	TAG_SAR_SEGMENT_SEQNUM      = uint16(0x020F)
	TAG_SC_INTERFACE_VERSION    = uint16(0x0210)
	TAG_NETWORK_ERROR_CODE      = uint16(0x0423)
	TAG_MESSAGE_PAYLOAD         = uint16(0x0424)
	TAG_DELIVERY_FAILURE_REASON = uint16(0x0425)
	TAG_MORE_MESSAGES_TO_SEND   = uint16(0x0426)
	TAG_MESSAGE_STATE           = uint16(0x0427)
)

var TlvTagMap = map[uint16]string{
	TAG_DEST_ADDR_SUBUNIT:       "dest_addr_subunit",
	TAG_SOURCE_ADDR_SUBUNIT:     "source_addr_subunit",
	TAG_PAYLOAD_TYPE:            "payload_type",
	TAG_ADDITIONAL_STATUS_INFO:  "additional_status_info_text",
	TAG_RECEIPTED_MESSAGE_ID:    "receipted_message_id",
	TAG_USER_MESSAGE_REFERENCE:  "user_message_reference",
	TAG_SOURCE_PORT:             "source_port",
	TAG_DESTINATION_PORT:        "destination_port",
	TAG_SAR_MSG_REF_NUM:         "sar_msg_ref_num",
	TAG_LANGUAGE_INDICATOR:      "language_indicator",
	TAG_SAR_TOTAL_SEGMENTS:      "sar_total_segments",
	TAG_SAR_SEGMENT_SEQNUM:      "sar_segment_seqnum",
	TAG_SC_INTERFACE_VERSION:    "sc_interface_version",
	TAG_NETWORK_ERROR_CODE:      "network_error_code",
	TAG_MESSAGE_PAYLOAD:         "message_payload",
	TAG_DELIVERY_FAILURE_REASON: "delivery_failure_reason",
	TAG_MORE_MESSAGES_TO_SEND:   "more_messages_to_send",
	TAG_MESSAGE_STATE:           "message_state",
}

// 定长的可选参数，长度不符时回复 ESME_RINVPARLEN
var tlvFixedLength = map[uint16]int{
	TAG_DEST_ADDR_SUBUNIT:       1,
	TAG_SOURCE_ADDR_SUBUNIT:     1,
	TAG_PAYLOAD_TYPE:            1,
	TAG_USER_MESSAGE_REFERENCE:  2,
	TAG_SOURCE_PORT:             2,
	TAG_DESTINATION_PORT:        2,
	TAG_SAR_MSG_REF_NUM:         2,
	TAG_LANGUAGE_INDICATOR:      1,
	TAG_SAR_TOTAL_SEGMENTS:      1,
	TAG_SAR_SEGMENT_SEQNUM:      1,
	TAG_SC_INTERFACE_VERSION:    1,
	TAG_NETWORK_ERROR_CODE:      3,
	TAG_DELIVERY_FAILURE_REASON: 1,
	TAG_MORE_MESSAGES_TO_SEND:   1,
	TAG_MESSAGE_STATE:           1,
}

var (
	errTlvStream = errors.New("truncated tlv")
	errTlvLength = errors.New("tlv length does not match tag")
)

// Tlv 可选参数，未知的 Tag 原样保留
type Tlv struct {
	Tag   uint16
	Value []byte
}

func (t Tlv) String() string {
	name, ok := TlvTagMap[t.Tag]
	if !ok {
		name = fmt.Sprintf("%#04x", t.Tag)
	}
	return fmt.Sprintf("%s=%x", name, t.Value)
}

// Tlvs 保持报文中出现的顺序
type Tlvs []Tlv

func (ts Tlvs) Get(tag uint16) ([]byte, bool) {
	for _, t := range ts {
		if t.Tag == tag {
			return t.Value, true
		}
	}
	return nil, false
}

func (ts Tlvs) GetU8(tag uint16) (uint8, bool) {
	v, ok := ts.Get(tag)
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// Set 存在则替换，否则追加到末尾
func (ts *Tlvs) Set(tag uint16, value []byte) {
	for i := range *ts {
		if (*ts)[i].Tag == tag {
			(*ts)[i].Value = value
			return
		}
	}
	*ts = append(*ts, Tlv{Tag: tag, Value: value})
}

func (ts Tlvs) String() string {
	if len(ts) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(ts))
	for _, t := range ts {
		parts = append(parts, t.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (w *writer) tlvs(ts Tlvs) {
	for _, t := range ts {
		w.u16(t.Tag)
		w.u16(uint16(len(t.Value)))
		w.octets(t.Value)
	}
}

// tlvs 读到消息体末尾为止，之后的字节属于下一个PDU，不会在这里出现
func (r *reader) tlvs() Tlvs {
	if r.err != nil {
		return nil
	}
	var ts Tlvs
	for r.remaining() > 0 {
		if r.remaining() < 4 {
			r.fail("tlv", ESME_RINVOPTPARSTREAM, errTlvStream)
			return nil
		}
		tag := binary.BigEndian.Uint16(r.buf[r.off:])
		l := int(binary.BigEndian.Uint16(r.buf[r.off+2:]))
		r.off += 4
		if fixed, ok := tlvFixedLength[tag]; ok && fixed != l {
			r.fail(fmt.Sprintf("tlv %#04x", tag), ESME_RINVPARLEN, errTlvLength)
			return nil
		}
		value := r.octets(fmt.Sprintf("tlv %#04x", tag), l, ESME_RINVOPTPARSTREAM)
		if r.err != nil {
			return nil
		}
		ts = append(ts, Tlv{Tag: tag, Value: value})
	}
	return ts
}
