package smpp

import "fmt"

// command_status 取值
const (
	ESME_ROK              = uint32(0x00000000) // 成功
	ESME_RINVMSGLEN       = uint32(0x00000001) // 消息长度非法
	ESME_RINVCMDLEN       = uint32(0x00000002) // 命令长度非法
	ESME_RINVCMDID        = uint32(0x00000003) // 命令ID非法
	ESME_RINVBNDSTS       = uint32(0x00000004) // 当前绑定状态不允许该命令
	ESME_RALYBND          = uint32(0x00000005) // 已绑定
	ESME_RINVPRTFLG       = uint32(0x00000006)
	ESME_RINVREGDLVFLG    = uint32(0x00000007)
	ESME_RSYSERR          = uint32(0x00000008) // 系统错误
	ESME_RINVSRCADR       = uint32(0x0000000A)
	ESME_RINVDSTADR       = uint32(0x0000000B)
	ESME_RINVMSGID        = uint32(0x0000000C)
	ESME_RBINDFAIL        = uint32(0x0000000D)
	ESME_RINVPASWD        = uint32(0x0000000E)
	ESME_RINVSYSID        = uint32(0x0000000F)
	ESME_RCANCELFAIL      = uint32(0x00000011)
	ESME_RREPLACEFAIL     = uint32(0x00000013)
	ESME_RMSGQFUL         = uint32(0x00000014)
	ESME_RINVSERTYP       = uint32(0x00000015)
	ESME_RINVESMCLASS     = uint32(0x00000043)
	ESME_RSUBMITFAIL      = uint32(0x00000045)
	ESME_RINVSRCTON       = uint32(0x00000048)
	ESME_RINVSRCNPI       = uint32(0x00000049)
	ESME_RINVDSTTON       = uint32(0x00000050)
	ESME_RINVDSTNPI       = uint32(0x00000051)
	ESME_RINVSYSTYP       = uint32(0x00000053)
	ESME_RTHROTTLED       = uint32(0x00000058) // 超出流控
	ESME_RINVSCHED        = uint32(0x00000061)
	ESME_RINVEXPIRY       = uint32(0x00000062)
	ESME_RX_T_APPN        = uint32(0x00000064)
	ESME_RX_P_APPN        = uint32(0x00000065)
	ESME_RX_R_APPN        = uint32(0x00000066)
	ESME_RQUERYFAIL       = uint32(0x00000067)
	ESME_RINVOPTPARSTREAM = uint32(0x000000C0)
	ESME_ROPTPARNOTALLWD  = uint32(0x000000C1)
	ESME_RINVPARLEN       = uint32(0x000000C2)
	ESME_RMISSINGOPTPARAM = uint32(0x000000C3)
	ESME_RINVOPTPARAMVAL  = uint32(0x000000C4)
	ESME_RDELIVERYFAILURE = uint32(0x000000FE)
	ESME_RUNKNOWNERR      = uint32(0x000000FF)
)

var StatusMap = map[uint32]string{
	ESME_ROK:              "ESME_ROK",
	ESME_RINVMSGLEN:       "ESME_RINVMSGLEN",
	ESME_RINVCMDLEN:       "ESME_RINVCMDLEN",
	ESME_RINVCMDID:        "ESME_RINVCMDID",
	ESME_RINVBNDSTS:       "ESME_RINVBNDSTS",
	ESME_RALYBND:          "ESME_RALYBND",
	ESME_RINVPRTFLG:       "ESME_RINVPRTFLG",
	ESME_RINVREGDLVFLG:    "ESME_RINVREGDLVFLG",
	ESME_RSYSERR:          "ESME_RSYSERR",
	ESME_RINVSRCADR:       "ESME_RINVSRCADR",
	ESME_RINVDSTADR:       "ESME_RINVDSTADR",
	ESME_RINVMSGID:        "ESME_RINVMSGID",
	ESME_RBINDFAIL:        "ESME_RBINDFAIL",
	ESME_RINVPASWD:        "ESME_RINVPASWD",
	ESME_RINVSYSID:        "ESME_RINVSYSID",
	ESME_RCANCELFAIL:      "ESME_RCANCELFAIL",
	ESME_RREPLACEFAIL:     "ESME_RREPLACEFAIL",
	ESME_RMSGQFUL:         "ESME_RMSGQFUL",
	ESME_RINVSERTYP:       "ESME_RINVSERTYP",
	ESME_RINVESMCLASS:     "ESME_RINVESMCLASS",
	ESME_RSUBMITFAIL:      "ESME_RSUBMITFAIL",
	ESME_RINVSRCTON:       "ESME_RINVSRCTON",
	ESME_RINVSRCNPI:       "ESME_RINVSRCNPI",
	ESME_RINVDSTTON:       "ESME_RINVDSTTON",
	ESME_RINVDSTNPI:       "ESME_RINVDSTNPI",
	ESME_RINVSYSTYP:       "ESME_RINVSYSTYP",
	ESME_RTHROTTLED:       "ESME_RTHROTTLED",
	ESME_RINVSCHED:        "ESME_RINVSCHED",
	ESME_RINVEXPIRY:       "ESME_RINVEXPIRY",
	ESME_RX_T_APPN:        "ESME_RX_T_APPN",
	ESME_RX_P_APPN:        "ESME_RX_P_APPN",
	ESME_RX_R_APPN:        "ESME_RX_R_APPN",
	ESME_RQUERYFAIL:       "ESME_RQUERYFAIL",
	ESME_RINVOPTPARSTREAM: "ESME_RINVOPTPARSTREAM",
	ESME_ROPTPARNOTALLWD:  "ESME_ROPTPARNOTALLWD",
	ESME_RINVPARLEN:       "ESME_RINVPARLEN",
	ESME_RMISSINGOPTPARAM: "ESME_RMISSINGOPTPARAM",
	ESME_RINVOPTPARAMVAL:  "ESME_RINVOPTPARAMVAL",
	ESME_RDELIVERYFAILURE: "ESME_RDELIVERYFAILURE",
	ESME_RUNKNOWNERR:      "ESME_RUNKNOWNERR",
}

func StatusName(status uint32) string {
	if name, ok := StatusMap[status]; ok {
		return name
	}
	return fmt.Sprintf("%#x", status)
}

// message_state 取值，用于 query_sm_resp 及状态报告
const (
	ENROUTE       = uint8(1)
	DELIVERED     = uint8(2)
	EXPIRED       = uint8(3)
	DELETED       = uint8(4)
	UNDELIVERABLE = uint8(5)
	ACCEPTED      = uint8(6)
	UNKNOWN       = uint8(7)
	REJECTED      = uint8(8)
)

// MessageStateMap 状态报告中 stat 字段使用的缩写
var MessageStateMap = map[uint8]string{
	ENROUTE:       "ENROUTE",
	DELIVERED:     "DELIVRD",
	EXPIRED:       "EXPIRED",
	DELETED:       "DELETED",
	UNDELIVERABLE: "UNDELIV",
	ACCEPTED:      "ACCEPTD",
	UNKNOWN:       "UNKNOWN",
	REJECTED:      "REJECTD",
}

// esm_class / registered_delivery / data_coding 中用到的取值
const (
	ESM_CLASS_DELIVERY_RECEIPT = uint8(0x04)
	ESM_CLASS_UDHI             = uint8(0x40)

	REGISTERED_DELIVERY_MASK = uint8(0x03) // 低两位：0 不要报告，1 成功失败都要，2 仅失败

	DATA_CODING_DEFAULT = uint8(0x00)
	DATA_CODING_LATIN1  = uint8(0x03)
	DATA_CODING_BINARY  = uint8(0x04)
	DATA_CODING_UCS2    = uint8(0x08)

	INTERFACE_VERSION = uint8(0x34)
)
