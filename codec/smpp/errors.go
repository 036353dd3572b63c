package smpp

import (
	"errors"
	"fmt"
)

// ErrIncomplete 缓冲区中的字节不足一个完整的PDU，需等待更多数据
var ErrIncomplete = errors.New("smpp: incomplete pdu")

type ErrorKind int

const (
	InvalidCommandLength ErrorKind = iota + 1 // 帧长度非法，连接无法继续解析
	InvalidCommandId                          // 未知的命令ID
	MalformedBody                             // 消息体字段或TLV解析失败
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidCommandLength:
		return "InvalidCommandLength"
	case InvalidCommandId:
		return "InvalidCommandId"
	case MalformedBody:
		return "MalformedBody"
	}
	return "Unknown"
}

// DecodeError 解码失败，Header 在能解析出报文头时不为空
type DecodeError struct {
	Kind   ErrorKind
	Header *Header
	Status uint32 // 回复对端时使用的 command_status
	Field  string
	Err    error
}

func (e *DecodeError) Error() string {
	var b = fmt.Sprintf("smpp: %s", e.Kind)
	if e.Header != nil {
		b += fmt.Sprintf(" [%s seq=%d]", CommandName(e.Header.CommandId), e.Header.SequenceNumber)
	}
	if e.Field != "" {
		b += " field " + e.Field
	}
	if e.Err != nil {
		b += ": " + e.Err.Error()
	}
	return b
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Fatal 帧错误后字节流已无法对齐，只能关闭连接
func (e *DecodeError) Fatal() bool {
	return e.Kind == InvalidCommandLength
}

// Salvageable 能否取回序号以回复 generic_nack
func (e *DecodeError) Salvageable() bool {
	return e.Header != nil
}

var (
	errOverrun      = errors.New("field runs past body end")
	errUnterminated = errors.New("c-string not terminated")
	errTooLong      = errors.New("c-string exceeds max length")
	errTrailing     = errors.New("unexpected bytes after body")
)

// fieldError 消息体解析中的字段错误，由 Decode 转换为 DecodeError
type fieldError struct {
	field  string
	status uint32
	err    error
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %v", e.field, e.err)
}

func (e *fieldError) Unwrap() error {
	return e.err
}
