package smpp

import "fmt"

// Bind bind_transmitter / bind_receiver / bind_transceiver 共用同一消息体
type Bind struct {
	*Header
	SystemId         string // 最长15字节
	Password         string // 最长8字节
	SystemType       string
	InterfaceVersion uint8
	AddrTon          uint8
	AddrNpi          uint8
	AddressRange     string // 接收端愿意接收的地址范围（正则）
}

func NewBind(commandId uint32, seq uint32, systemId string, password string) *Bind {
	return &Bind{
		Header:           &Header{CommandId: commandId, SequenceNumber: seq},
		SystemId:         systemId,
		Password:         password,
		InterfaceVersion: INTERFACE_VERSION,
	}
}

func (b *Bind) Encode() []byte {
	w := newWriter()
	w.cstring(b.SystemId)
	w.cstring(b.Password)
	w.cstring(b.SystemType)
	w.u8(b.InterfaceVersion)
	w.u8(b.AddrTon)
	w.u8(b.AddrNpi)
	w.cstring(b.AddressRange)
	return w.frame(b.Header)
}

func (b *Bind) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, BIND_TRANSMITTER, BIND_RECEIVER, BIND_TRANSCEIVER); err != nil {
		return err
	}
	b.Header = header
	r := newReader(body)
	b.SystemId = r.cstring("system_id", LEN_SYSTEM_ID, ESME_RINVSYSID)
	b.Password = r.cstring("password", LEN_PASSWORD, ESME_RINVPASWD)
	b.SystemType = r.cstring("system_type", LEN_SYSTEM_TYPE, ESME_RINVSYSTYP)
	b.InterfaceVersion = r.u8("interface_version")
	b.AddrTon = r.u8("addr_ton")
	b.AddrNpi = r.u8("addr_npi")
	b.AddressRange = r.cstring("address_range", LEN_ADDRESS_RANGE, ESME_RINVCMDLEN)
	r.end()
	return r.error()
}

func (b *Bind) String() string {
	return fmt.Sprintf("{ Header: %s, systemId: %s, password: %s, systemType: %s, version: %#x, ton: %d, npi: %d, addressRange: %s }",
		b.Header, b.SystemId, mask(b.Password), b.SystemType, b.InterfaceVersion, b.AddrTon, b.AddrNpi, b.AddressRange)
}

// ToResponse 成功时由调用方填写 SMSC 的 system_id
func (b *Bind) ToResponse(status uint32) Pdu {
	return &BindResp{Header: b.respHeader(status)}
}

// BindResp 成功时消息体为 SMSC 的 system_id，失败时没有消息体
type BindResp struct {
	*Header
	SystemId string
	Tlvs     Tlvs
}

func (r *BindResp) Encode() []byte {
	w := newWriter()
	if r.CommandStatus == ESME_ROK || r.SystemId != "" || len(r.Tlvs) > 0 {
		w.cstring(r.SystemId)
		w.tlvs(r.Tlvs)
	}
	return w.frame(r.Header)
}

func (r *BindResp) Decode(header *Header, body []byte) error {
	if err := checkHeader(header, BIND_TRANSMITTER_RESP, BIND_RECEIVER_RESP, BIND_TRANSCEIVER_RESP); err != nil {
		return err
	}
	r.Header = header
	if len(body) == 0 {
		return nil
	}
	rd := newReader(body)
	r.SystemId = rd.cstring("system_id", LEN_SYSTEM_ID, ESME_RINVSYSID)
	r.Tlvs = rd.tlvs()
	return rd.error()
}

func (r *BindResp) String() string {
	return fmt.Sprintf("{ Header: %s, systemId: %s, tlvs: %s }", r.Header, r.SystemId, r.Tlvs)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "******"
}
