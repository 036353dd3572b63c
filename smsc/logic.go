package smsc

import (
	"time"

	"github.com/aaronwong1989/gosmsc/codec/smpp"
	"github.com/aaronwong1989/gosmsc/comm"
)

// Decision 对一条 submit_sm 的处理结果
type Decision struct {
	Status    uint32        // submit_sm_resp 的 command_status
	Delivered bool          // 模拟的最终投递结果
	Delay     time.Duration // 多久之后产生最终结果
}

// Logic 可替换的业务规则
type Logic interface {
	SubmitSm(systemId string, sm *smpp.SubmitSm) Decision
}

// ReceiptLogic 接受所有短信，按成功率模拟投递结果，延迟后生成状态报告
type ReceiptLogic struct {
	Delay       time.Duration
	Jitter      time.Duration // 在 Delay 上附加 [0, Jitter) 的随机延迟
	SuccessRate float64       // [0,1]
}

func (l *ReceiptLogic) SubmitSm(_ string, _ *smpp.SubmitSm) Decision {
	d := Decision{Status: smpp.ESME_ROK, Delay: l.Delay}
	if l.Jitter > 0 {
		d.Delay += time.Duration(comm.RandNum(0, int32(l.Jitter/time.Millisecond))) * time.Millisecond
	}
	// 骰子点数超过成功率即失败
	d.Delivered = !comm.DiceCheck(l.SuccessRate)
	return d
}

// RejectLogic 所有 submit_sm 都以 ESME_RSYSERR 拒绝
type RejectLogic struct{}

func (RejectLogic) SubmitSm(_ string, _ *smpp.SubmitSm) Decision {
	return Decision{Status: smpp.ESME_RSYSERR}
}

// LogicOf 按配置选择业务规则
func LogicOf(conf *LogicConfig) Logic {
	switch conf.Mode {
	case "reject":
		return RejectLogic{}
	default:
		return &ReceiptLogic{Delay: conf.ReceiptDelay, Jitter: conf.ReceiptJitter, SuccessRate: conf.SuccessRate}
	}
}
