package smpp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const receiptTimeLayout = "0601021504"

var ErrNotReceipt = errors.New("smpp: not a delivery receipt")

// Receipt 状态报告正文，格式：
// id:IIIIIIIIII sub:SSS dlvrd:DDD submit date:YYMMDDhhmm done date:YYMMDDhhmm stat:DDDDDDD err:E text:...
type Receipt struct {
	Id         string
	Sub        int
	Dlvrd      int
	SubmitDate time.Time
	DoneDate   time.Time
	State      uint8 // message_state
	Err        int
	Text       string // 原短信前20个字节
}

func (r *Receipt) String() string {
	text := r.Text
	if len(text) > 20 {
		// 不截断多字节字符
		n := 20
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n]
	}
	stat, ok := MessageStateMap[r.State]
	if !ok {
		stat = MessageStateMap[UNKNOWN]
	}
	return fmt.Sprintf("id:%s sub:%03d dlvrd:%03d submit date:%s done date:%s stat:%s err:%03d text:%s",
		r.Id, r.Sub, r.Dlvrd, r.SubmitDate.Format(receiptTimeLayout), r.DoneDate.Format(receiptTimeLayout),
		stat, r.Err, text)
}

var receiptKeys = []string{"id:", " sub:", " dlvrd:", " submit date:", " done date:", " stat:", " err:", " text:"}

// ParseReceipt 解析状态报告正文，text 之后的内容原样保留
func ParseReceipt(s string) (*Receipt, error) {
	values := make([]string, len(receiptKeys))
	rest := s
	for i, key := range receiptKeys {
		if i == 0 {
			if !strings.HasPrefix(rest, key) {
				return nil, ErrNotReceipt
			}
			rest = rest[len(key):]
			continue
		}
		j := strings.Index(rest, key)
		if j < 0 {
			if key == " text:" {
				values[i-1], rest = rest, ""
				break
			}
			return nil, ErrNotReceipt
		}
		values[i-1], rest = rest[:j], rest[j+len(key):]
	}
	if rest != "" {
		values[len(values)-1] = rest
	}

	r := &Receipt{Id: values[0], Text: values[7]}
	var err error
	if r.Sub, err = strconv.Atoi(values[1]); err != nil {
		return nil, fmt.Errorf("%w: sub %v", ErrNotReceipt, err)
	}
	if r.Dlvrd, err = strconv.Atoi(values[2]); err != nil {
		return nil, fmt.Errorf("%w: dlvrd %v", ErrNotReceipt, err)
	}
	if r.SubmitDate, err = time.ParseInLocation(receiptTimeLayout, values[3], time.Local); err != nil {
		return nil, fmt.Errorf("%w: submit date %v", ErrNotReceipt, err)
	}
	if r.DoneDate, err = time.ParseInLocation(receiptTimeLayout, values[4], time.Local); err != nil {
		return nil, fmt.Errorf("%w: done date %v", ErrNotReceipt, err)
	}
	r.State = UNKNOWN
	for state, name := range MessageStateMap {
		if name == values[5] {
			r.State = state
		}
	}
	if r.Err, err = strconv.Atoi(values[6]); err != nil {
		return nil, fmt.Errorf("%w: err %v", ErrNotReceipt, err)
	}
	return r, nil
}

// FormatTime SMPP 绝对时间 YYMMDDhhmmsstnnp，nn 为与UTC相差的刻钟数
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	_, offset := t.Zone()
	p := "+"
	if offset < 0 {
		p, offset = "-", -offset
	}
	return fmt.Sprintf("%s%d%02d%s", t.Format("060102150405"), t.Nanosecond()/1e8, offset/900, p)
}
