package smpp

import (
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTrip 编码后再解码，结果须与原PDU相等，且二次编码字节一致
func roundTrip(t *testing.T, p Pdu) Pdu {
	frame := p.Encode()
	assert.Equal(t, uint32(len(frame)), binary.BigEndian.Uint32(frame[0:4]))

	got, n, err := Decode(frame, 0)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, p, got)
	assert.Equal(t, frame, got.Encode())
	t.Logf("<<< %s", got)
	return got
}

func TestRoundTrip_Bind(t *testing.T) {
	for _, id := range []uint32{BIND_TRANSMITTER, BIND_RECEIVER, BIND_TRANSCEIVER} {
		bind := NewBind(id, 2, "esmeid", "password")
		bind.SystemType = "type"
		bind.AddrTon, bind.AddrNpi = 1, 1
		bind.AddressRange = "^86.*"
		roundTrip(t, bind)

		ok := bind.ToResponse(ESME_ROK).(*BindResp)
		ok.SystemId = "TestServer"
		ok.Tlvs = Tlvs{{Tag: TAG_SC_INTERFACE_VERSION, Value: []byte{INTERFACE_VERSION}}}
		roundTrip(t, ok)

		roundTrip(t, bind.ToResponse(ESME_RINVPASWD))
	}
}

func TestRoundTrip_SubmitSm(t *testing.T) {
	sm := NewSubmitSm(3, "10086", "12345", "hi")
	sm.ServiceType = "CMT"
	sm.SourceAddrTon, sm.SourceAddrNpi = 5, 0
	sm.DestAddrTon, sm.DestAddrNpi = 1, 1
	sm.EsmClass = 0x03
	sm.PriorityFlag = 1
	sm.ValidityPeriod = "000001000000000R"
	sm.RegisteredDelivery = 1
	sm.Tlvs = Tlvs{
		{Tag: 0x1400, Value: []byte{1, 2, 3}}, // 厂商自定义，未知Tag
		{Tag: TAG_USER_MESSAGE_REFERENCE, Value: []byte{0, 7}},
		{Tag: 0x1401},
	}
	got := roundTrip(t, sm).(*SubmitSm)
	assert.Equal(t, "hi", got.Text())
	assert.Equal(t, uint16(0x1400), got.Tlvs[0].Tag)
	assert.Equal(t, uint16(0x1401), got.Tlvs[2].Tag)

	resp := sm.ToResponse(ESME_ROK).(*SubmitSmResp)
	resp.MessageId = "0a1b2c"
	roundTrip(t, resp)
	roundTrip(t, sm.ToResponse(ESME_RTHROTTLED))
}

func TestRoundTrip_SubmitSmPayload(t *testing.T) {
	sm := NewSubmitSm(4, "10086", "12345", "")
	sm.Tlvs = Tlvs{{Tag: TAG_MESSAGE_PAYLOAD, Value: []byte("a payload longer than the short_message field would carry")}}
	got := roundTrip(t, sm).(*SubmitSm)
	assert.Nil(t, got.ShortMessage)
	assert.Equal(t, "a payload longer than the short_message field would carry", got.Text())
}

func TestRoundTrip_LongText(t *testing.T) {
	text := strings.Repeat("x", 300)
	sm := NewSubmitSm(7, "1000", "12345", text)
	assert.Nil(t, sm.ShortMessage)
	got := roundTrip(t, sm).(*SubmitSm)
	assert.Equal(t, text, got.Text())

	dm := NewDeliverSm(8, "12345", "1000", text)
	assert.Equal(t, text, roundTrip(t, dm).(*DeliverSm).Text())
}

// 直接赋值的超长 short_message 编码时改放 message_payload
func TestEncode_OverlongShortMessage(t *testing.T) {
	sm := NewSubmitSm(7, "1000", "12345", "")
	sm.ShortMessage = []byte(strings.Repeat("y", 300))
	frame := sm.Encode()

	got, n, err := Decode(frame, 0)
	require.NoError(t, err)
	assert.Equal(t, len(frame), n)
	decoded := got.(*SubmitSm)
	assert.Nil(t, decoded.ShortMessage)
	assert.Equal(t, strings.Repeat("y", 300), decoded.Text())
	// 原PDU不被修改
	assert.Len(t, sm.ShortMessage, 300)
	assert.Empty(t, sm.Tlvs)
}

func TestRoundTrip_DeliverSm(t *testing.T) {
	dm := NewDeliverSm(0x7fffffff, "13800138000", "10086", "你好，世界")
	assert.Equal(t, DATA_CODING_UCS2, dm.DataCoding)
	got := roundTrip(t, dm).(*DeliverSm)
	assert.Equal(t, "你好，世界", got.Text())
	assert.False(t, got.IsReceipt())

	roundTrip(t, dm.ToResponse(ESME_ROK))
	roundTrip(t, dm.ToResponse(ESME_RX_T_APPN))
}

func TestRoundTrip_QueryAndCancel(t *testing.T) {
	q := NewQuerySm(5, "abc", "10086")
	roundTrip(t, q)
	qr := q.ToResponse(ESME_ROK).(*QuerySmResp)
	qr.MessageId, qr.FinalDate, qr.MessageState = "abc", "2210191200000+32", DELIVERED
	roundTrip(t, qr)
	roundTrip(t, q.ToResponse(ESME_RQUERYFAIL))

	c := NewCancelSm(6, "abc", "10086", "12345")
	c.ServiceType = "CMT"
	roundTrip(t, c)
	roundTrip(t, c.ToResponse(ESME_RCANCELFAIL))
}

func TestRoundTrip_HeaderOnly(t *testing.T) {
	roundTrip(t, NewEnquireLink(1))
	roundTrip(t, NewEnquireLink(1).ToResponse(ESME_ROK))
	roundTrip(t, NewUnbind(0xffffffff))
	roundTrip(t, NewUnbind(2).ToResponse(ESME_ROK))
	roundTrip(t, NewGenericNack(9, ESME_RINVCMDID))
}

func TestRoundTrip_Raw(t *testing.T) {
	raw := &Raw{Header: &Header{CommandId: DATA_SM, SequenceNumber: 9}, Body: []byte("\x00\x01\x01abc\x00")}
	roundTrip(t, raw)
	roundTrip(t, &Raw{Header: &Header{CommandId: OUTBIND, SequenceNumber: 1}})
	assert.False(t, Supported(DATA_SM))
	assert.True(t, Supported(SUBMIT_SM))
}

func TestDecode_ByteAtATime(t *testing.T) {
	sm := NewSubmitSm(10, "10086", "12345", "hello")
	sm.Tlvs = Tlvs{{Tag: 0x1500, Value: []byte("x")}}
	frame := sm.Encode()

	for i := 0; i < len(frame); i++ {
		p, n, err := Decode(frame[:i], 0)
		assert.ErrorIs(t, err, ErrIncomplete, "decoded early at %d bytes", i)
		assert.Nil(t, p)
		assert.Equal(t, 0, n)
	}
	p, n, err := Decode(frame, 0)
	assert.NoError(t, err)
	assert.Equal(t, len(frame), n)
	assert.Equal(t, sm, p)
}

func TestDecode_TrailingBytesBelongToNextPdu(t *testing.T) {
	first := NewEnquireLink(1).Encode()
	second := NewSubmitSm(2, "1", "2", "hi").Encode()
	buf := append(append([]byte{}, first...), second[:5]...)

	p, n, err := Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, HEAD_LENGTH, n)
	assert.Equal(t, ENQUIRE_LINK, p.Head().CommandId)

	_, _, err = Decode(buf[n:], 0)
	assert.ErrorIs(t, err, ErrIncomplete)

	buf = append(buf, second[5:]...)
	p, _, err = Decode(buf[n:], 0)
	require.NoError(t, err)
	assert.Equal(t, "hi", p.(*SubmitSm).Text())
}

func TestDecode_DeclaredLongerThanAvailable(t *testing.T) {
	// command_length=20 但只到达了10个字节
	buf := []byte("\x00\x00\x00\x14\x00\x00\x00\x15\x00\x00")
	_, n, err := Decode(buf, 0)
	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, 0, n)
}

func TestDecode_InvalidCommandId(t *testing.T) {
	buf := []byte("\x00\x00\x00\x10\xff\x00\x00\x00\x00\x00\x00\x00\x00\x00\x00\x22")
	_, n, err := Decode(buf, 0)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, InvalidCommandId, de.Kind)
	assert.False(t, de.Fatal())
	assert.Equal(t, 16, n)

	nack := ResponseFor(de.Header, de.Status)
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x00\x00\x00\x00\x03\x00\x00\x00\x22"), nack.Encode())
}

func TestDecode_InvalidCommandLength(t *testing.T) {
	// 长度小于报文头
	_, _, err := Decode([]byte("\x00\x00\x00\x0f\x00\x00\x00\x15\x00\x00\x00\x00\x00\x00\x00\x03"), 0)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.True(t, de.Fatal())
	require.True(t, de.Salvageable())
	assert.Equal(t, uint32(3), de.Header.SequenceNumber)
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x00\x00\x00\x00\x02\x00\x00\x00\x03"),
		NewGenericNack(de.Header.SequenceNumber, de.Status).Encode())

	// 超过配置的最大长度，且不足一个报文头时无法取回序号
	_, _, err = Decode([]byte("\x00\xff\xff\xff\x00\x00"), 1024)
	require.True(t, errors.As(err, &de))
	assert.True(t, de.Fatal())
	assert.False(t, de.Salvageable())
	assert.Equal(t, ESME_RINVCMDLEN, de.Status)

	// maxLen 超过协议上限时按协议上限处理
	_, _, err = Decode([]byte("\x00\x01\x00\x01\x00\x00\x00\x04"), 1<<20)
	require.True(t, errors.As(err, &de))
	assert.Equal(t, InvalidCommandLength, de.Kind)
}

func TestDecode_BindBytes(t *testing.T) {
	buf := []byte("\x00\x00\x00\x29\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x02" +
		"esmeid\x00password\x00type\x00\x34\x00\x00\x00")
	p, n, err := Decode(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 0x29, n)
	bind := p.(*Bind)
	assert.Equal(t, "esmeid", bind.SystemId)
	assert.Equal(t, "password", bind.Password)
	assert.Equal(t, "type", bind.SystemType)
	assert.Equal(t, INTERFACE_VERSION, bind.InterfaceVersion)
	assert.NotContains(t, bind.String(), "password: password")

	resp := bind.ToResponse(ESME_ROK).(*BindResp)
	resp.SystemId = "TestServer"
	assert.Equal(t, []byte("\x00\x00\x00\x1b\x80\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x02TestServer\x00"), resp.Encode())
	// 失败响应没有消息体
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x02\x00\x00\x00\x0e\x00\x00\x00\x02"),
		bind.ToResponse(ESME_RINVPASWD).Encode())
}

func TestDecode_DoesNotAliasBuffer(t *testing.T) {
	buf := NewSubmitSm(1, "10086", "12345", "hi").Encode()
	p, _, err := Decode(buf, 0)
	require.NoError(t, err)
	for i := range buf {
		buf[i] = 0xee
	}
	sm := p.(*SubmitSm)
	assert.Equal(t, "12345", sm.DestinationAddr)
	assert.Equal(t, []byte("hi"), sm.ShortMessage)
	assert.Equal(t, uint32(1), sm.SequenceNumber)
}

func malformed(t *testing.T, buf []byte) *DecodeError {
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(buf)))
	_, n, err := Decode(buf, 0)
	var de *DecodeError
	require.True(t, errors.As(err, &de), "err=%v", err)
	assert.Equal(t, MalformedBody, de.Kind)
	assert.Equal(t, len(buf), n)
	t.Logf("%v", de)
	return de
}

func TestDecode_MalformedBody(t *testing.T) {
	head := "\x00\x00\x00\x00\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x05"

	// system_id 超长
	de := malformed(t, []byte(head+"abcdefghijklmnopq\x00pwd\x00\x00\x34\x00\x00\x00"))
	assert.Equal(t, ESME_RINVSYSID, de.Status)
	assert.Equal(t, "system_id", de.Field)
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x02\x00\x00\x00\x0f\x00\x00\x00\x05"),
		ResponseFor(de.Header, de.Status).Encode())

	// password 没有结束符
	de = malformed(t, []byte(head+"esme\x00pwd"))
	assert.Equal(t, ESME_RINVPASWD, de.Status)

	// 必选字段缺失
	de = malformed(t, []byte(head+"esme\x00pwd\x00\x00"))
	assert.Equal(t, ESME_RINVCMDLEN, de.Status)

	// 无TLV的命令多出字节
	de = malformed(t, []byte(head+"esme\x00pwd\x00\x00\x34\x00\x00\x00junk"))
	assert.Equal(t, ESME_RINVCMDLEN, de.Status)

	// 只有报文头的命令带了消息体
	de = malformed(t, []byte("\x00\x00\x00\x00\x00\x00\x00\x15\x00\x00\x00\x00\x00\x00\x00\x09\x00"))
	assert.Equal(t, ESME_RINVCMDLEN, de.Status)
	assert.Equal(t, ENQUIRE_LINK_RESP, ResponseFor(de.Header, de.Status).Head().CommandId)
}

func TestDecode_MalformedSubmitSm(t *testing.T) {
	base := NewSubmitSm(8, "10086", "12345", "hi").Encode()

	// sm_length 超出消息体
	buf := append([]byte{}, base...)
	buf[len(buf)-3] = 10
	de := malformed(t, buf)
	assert.Equal(t, ESME_RINVMSGLEN, de.Status)
	resp := ResponseFor(de.Header, de.Status)
	assert.Equal(t, SUBMIT_SM_RESP, resp.Head().CommandId)
	assert.Equal(t, HEAD_LENGTH, len(resp.Encode()))

	// TLV 被截断
	buf = append(append([]byte{}, base...), 0x14, 0x00, 0x00)
	de = malformed(t, buf)
	assert.Equal(t, ESME_RINVOPTPARSTREAM, de.Status)

	// TLV 声明的长度超出消息体
	buf = append(append([]byte{}, base...), 0x14, 0x00, 0x00, 0x09, 0x01)
	de = malformed(t, buf)
	assert.Equal(t, ESME_RINVOPTPARSTREAM, de.Status)

	// 定长TLV长度不符
	buf = append(append([]byte{}, base...), 0x02, 0x04, 0x00, 0x01, 0x01)
	de = malformed(t, buf)
	assert.Equal(t, ESME_RINVPARLEN, de.Status)

	// destination_addr 超长
	sm := NewSubmitSm(8, "10086", "1234567890123456789012", "hi")
	de = malformed(t, sm.Encode())
	assert.Equal(t, ESME_RINVDSTADR, de.Status)
}

func TestDecode_OversizedBindBody(t *testing.T) {
	// 声明长度远大于实际内容，剩余部分全为0
	pdu := []byte("\x00\x00\xff\xff\x00\x00\x00\x02\x00\x00\x00\x00\x00\x00\x00\x02" +
		"esmeid\x00password\x00type\x00\x34\x00\x00\x00")
	buf := make([]byte, 100000)
	copy(buf, pdu)

	_, n, err := Decode(buf, 0)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 0xffff, n)
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x02\x00\x00\x00\x02\x00\x00\x00\x02"),
		ResponseFor(de.Header, de.Status).Encode())
}

func TestResponseFor_Responses(t *testing.T) {
	// 客户端发来的响应类命令出错时只能回复 generic_nack
	h := &Header{CommandId: BIND_TRANSMITTER_RESP, SequenceNumber: 2}
	assert.Equal(t, []byte("\x00\x00\x00\x10\x80\x00\x00\x00\x00\x00\x00\x03\x00\x00\x00\x02"),
		ResponseFor(h, ESME_RINVCMDID).Encode())

	h = &Header{CommandId: DATA_SM, SequenceNumber: 3}
	assert.Equal(t, GENERIC_NACK, ResponseFor(h, ESME_RINVCMDID).Head().CommandId)
}
