package smpp

import (
	"bytes"
	"encoding/binary"
)

// C-string 字段最大长度，含结尾的NUL
const (
	LEN_SYSTEM_ID     = 16
	LEN_PASSWORD      = 9
	LEN_SYSTEM_TYPE   = 13
	LEN_SERVICE_TYPE  = 6
	LEN_ADDRESS       = 21
	LEN_ADDRESS_RANGE = 41
	LEN_MESSAGE_ID    = 65
	LEN_TIME          = 17
	MAX_SHORT_MESSAGE = 254
)

// reader 顺序读取消息体，遇到第一个错误后后续读取都返回零值
type reader struct {
	buf []byte
	off int
	err *fieldError
}

func newReader(body []byte) *reader {
	return &reader{buf: body}
}

func (r *reader) remaining() int {
	return len(r.buf) - r.off
}

func (r *reader) fail(field string, status uint32, err error) {
	if r.err == nil {
		r.err = &fieldError{field: field, status: status, err: err}
	}
}

func (r *reader) u8(field string) uint8 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 1 {
		r.fail(field, ESME_RINVCMDLEN, errOverrun)
		return 0
	}
	v := r.buf[r.off]
	r.off++
	return v
}

func (r *reader) u16(field string) uint16 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 2 {
		r.fail(field, ESME_RINVCMDLEN, errOverrun)
		return 0
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v
}

func (r *reader) u32(field string) uint32 {
	if r.err != nil {
		return 0
	}
	if r.remaining() < 4 {
		r.fail(field, ESME_RINVCMDLEN, errOverrun)
		return 0
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v
}

// cstring 读取以NUL结尾的字符串，max 含NUL
func (r *reader) cstring(field string, max int, status uint32) string {
	if r.err != nil {
		return ""
	}
	window := r.buf[r.off:]
	if len(window) > max {
		window = window[:max]
	}
	i := bytes.IndexByte(window, 0)
	if i < 0 {
		if r.remaining() < max {
			r.fail(field, status, errUnterminated)
		} else {
			r.fail(field, status, errTooLong)
		}
		return ""
	}
	s := string(window[:i]) // string() 会复制，不引用调用方缓冲区
	r.off += i + 1
	return s
}

// octets 读取定长字节串并复制
func (r *reader) octets(field string, n int, status uint32) []byte {
	if r.err != nil {
		return nil
	}
	if r.remaining() < n {
		r.fail(field, status, errOverrun)
		return nil
	}
	if n == 0 {
		return nil
	}
	v := make([]byte, n)
	copy(v, r.buf[r.off:r.off+n])
	r.off += n
	return v
}

// end 无TLV的消息体必须恰好读完
func (r *reader) end() {
	if r.err == nil && r.remaining() != 0 {
		r.fail("body", ESME_RINVCMDLEN, errTrailing)
	}
}

func (r *reader) error() error {
	if r.err == nil {
		return nil
	}
	return r.err
}

// writer 先预留报文头，消息体写完后由 frame 回填长度
type writer struct {
	buf []byte
}

func newWriter() *writer {
	w := &writer{buf: make([]byte, HEAD_LENGTH, 64)}
	return w
}

func (w *writer) u8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *writer) u16(v uint16) {
	w.buf = binary.BigEndian.AppendUint16(w.buf, v)
}

func (w *writer) u32(v uint32) {
	w.buf = binary.BigEndian.AppendUint32(w.buf, v)
}

func (w *writer) cstring(s string) {
	w.buf = append(w.buf, s...)
	w.buf = append(w.buf, 0)
}

func (w *writer) octets(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *writer) frame(header *Header) []byte {
	header.CommandLength = uint32(len(w.buf))
	header.put(w.buf)
	return w.buf
}
