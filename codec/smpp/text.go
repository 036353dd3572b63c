package smpp

import (
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// DecodeText 按 data_coding 解码短信内容，仅用于日志与状态报告
func DecodeText(dataCoding uint8, bts []byte) string {
	if len(bts) == 0 {
		return ""
	}
	switch dataCoding {
	case DATA_CODING_UCS2:
		e := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
		s, _, err := transform.Bytes(e.NewDecoder(), bts)
		if err != nil {
			return string(bts)
		}
		return string(s)
	case DATA_CODING_LATIN1:
		s, err := charmap.ISO8859_1.NewDecoder().Bytes(bts)
		if err != nil {
			return string(bts)
		}
		return string(s)
	}
	return string(bts)
}

// EncodeText 纯ASCII内容使用默认编码，否则使用UCS2
func EncodeText(text string) (uint8, []byte) {
	if text == "" {
		return DATA_CODING_DEFAULT, nil
	}
	for i := 0; i < len(text); i++ {
		if text[i] >= 0x80 {
			e := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
			ucs, _, err := transform.Bytes(e.NewEncoder(), []byte(text))
			if err == nil {
				return DATA_CODING_UCS2, ucs
			}
			break
		}
	}
	return DATA_CODING_DEFAULT, []byte(text)
}
