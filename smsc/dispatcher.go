package smsc

import (
	"regexp"
	"time"

	"github.com/aaronwong1989/gosmsc"
	"github.com/aaronwong1989/gosmsc/codec/smpp"
)

// Records 只读的短信记录，供 query_sm / cancel_sm 使用
type Records interface {
	Get(id string) (*gosmsc.Message, bool)
}

// Routes 按目的地址找到绑定了对应 address_range 的接收方
type Routes interface {
	Lookup(destination string) (string, bool)
}

// DispatchContext Dispatch 需要的只读协作者，均不做 I/O
type DispatchContext struct {
	SystemId        string // SMSC 自己的 system_id
	Namespace       string
	MaxBindAttempts int
	Auth            Authenticator
	Logic           Logic
	Records         Records
	Routes          Routes
	NextId          func() string
	Now             func() time.Time
}

// Effect 由连接的 actor 执行的副作用
type Effect interface {
	effect()
}

// CloseEffect 发送完响应后关闭连接
type CloseEffect struct{ Reason string }

// StoreEffect 保存短信记录
type StoreEffect struct{ Message *gosmsc.Message }

// EnqueueEffect 推送给接收方（上行短信或状态报告）
type EnqueueEffect struct{ Message *gosmsc.Message }

// ReceiptEffect Delay 之后以 Delivered 结束短信，需要时生成状态报告
type ReceiptEffect struct {
	Message   *gosmsc.Message
	Delivered bool
	Delay     time.Duration
}

// CancelEffect 取消短信并撤回尚未推送的上行
type CancelEffect struct {
	MessageId string
	Recipient string
}

// ResolveEffect 对端的响应，交给序号匹配
type ResolveEffect struct {
	Seq      uint32
	Response smpp.Pdu
}

// EventEffect 需要上报的事件
type EventEffect func(conn string, sink EventSink)

func (CloseEffect) effect()   {}
func (StoreEffect) effect()   {}
func (EnqueueEffect) effect() {}
func (ReceiptEffect) effect() {}
func (CancelEffect) effect()  {}
func (ResolveEffect) effect() {}
func (EventEffect) effect()   {}

// Result Response 为 nil 时不回复
type Result struct {
	Response smpp.Pdu
	State    SessionState
	Effects  []Effect
}

func (r *Result) add(e ...Effect) {
	r.Effects = append(r.Effects, e...)
}

func nack(header *smpp.Header, status uint32) smpp.Pdu {
	return smpp.NewGenericNack(header.SequenceNumber, status)
}

// Dispatch 按会话状态处理一个已解码的 PDU，不修改入参
func Dispatch(ctx *DispatchContext, state SessionState, pdu smpp.Pdu) Result {
	h := pdu.Head()
	res := Result{State: state}

	if h.IsResponse() {
		switch h.CommandId {
		case smpp.DELIVER_SM_RESP, smpp.ENQUIRE_LINK_RESP, smpp.UNBIND_RESP, smpp.GENERIC_NACK:
			res.add(ResolveEffect{Seq: h.SequenceNumber, Response: pdu})
		default:
			// ESME 不应发出的响应
			res.Response = nack(h, smpp.ESME_RINVCMDID)
		}
		return res
	}

	if _, raw := pdu.(*smpp.Raw); raw {
		res.Response = nack(h, smpp.ESME_RINVCMDID)
		return res
	}
	if h.SequenceNumber == 0 {
		// 0 不是合法的请求序号
		res.Response = nack(h, smpp.ESME_RUNKNOWNERR)
		cmd := h.CommandId
		res.add(EventEffect(func(conn string, sink EventSink) {
			sink.SequenceAnomaly(conn, 0, cmd)
		}))
		return res
	}
	if !state.Mode.Allows(h.CommandId) {
		res.Response = nack(h, smpp.ESME_RINVBNDSTS)
		return res
	}

	switch p := pdu.(type) {
	case *smpp.Bind:
		bind(ctx, p, &res)
	case *smpp.SubmitSm:
		submit(ctx, p, &res)
	case *smpp.QuerySm:
		query(ctx, p, &res)
	case *smpp.CancelSm:
		cancel(ctx, p, &res)
	case *smpp.EnquireLink:
		res.Response = p.ToResponse(smpp.ESME_ROK)
	case *smpp.Unbind:
		res.Response = p.ToResponse(smpp.ESME_ROK)
		res.State.Mode = Closed
		res.add(CloseEffect{Reason: "unbind"})
	default:
		res.Response = nack(h, smpp.ESME_RINVCMDID)
	}
	return res
}

// DispatchError 处理解码失败的 PDU
func DispatchError(ctx *DispatchContext, state SessionState, e *smpp.DecodeError) Result {
	res := Result{State: state}
	kind, status := e.Kind.String(), e.Status
	res.add(EventEffect(func(conn string, sink EventSink) {
		sink.DecodeFailed(conn, kind, status)
	}))

	if e.Fatal() {
		if e.Salvageable() {
			res.Response = nack(e.Header, smpp.ESME_RINVCMDLEN)
		}
		res.State.Mode = Closed
		res.add(CloseEffect{Reason: "framing error"})
		return res
	}

	h := e.Header
	switch {
	case e.Kind == smpp.InvalidCommandId:
		res.Response = nack(h, smpp.ESME_RINVCMDID)
	case h.IsResponse():
		res.Response = nack(h, e.Status)
		if h.CommandId == smpp.DELIVER_SM_RESP {
			// 无法解析的 deliver_sm_resp 按失败处理
			res.add(ResolveEffect{Seq: h.SequenceNumber, Response: smpp.NewGenericNack(h.SequenceNumber, e.Status)})
		}
	case !smpp.Supported(h.CommandId):
		res.Response = nack(h, smpp.ESME_RINVCMDID)
	case !state.Mode.Allows(h.CommandId):
		res.Response = nack(h, smpp.ESME_RINVBNDSTS)
	default:
		res.Response = smpp.ResponseFor(h, e.Status)
		if ModeOf(h.CommandId) != Unbound {
			bindFailed(ctx, ModeOf(h.CommandId), "", e.Status, &res)
		}
	}
	return res
}

func bind(ctx *DispatchContext, b *smpp.Bind, res *Result) {
	mode := ModeOf(b.CommandId)
	status := ctx.Auth.Authenticate(b.SystemId, b.Password)
	if status == smpp.ESME_ROK && mode.CanReceive() && b.AddressRange != "" {
		if _, err := regexp.Compile(b.AddressRange); err != nil {
			status = smpp.ESME_RBINDFAIL
		}
	}
	if status != smpp.ESME_ROK {
		res.Response = b.ToResponse(status)
		bindFailed(ctx, mode, b.SystemId, status, res)
		return
	}

	resp := b.ToResponse(smpp.ESME_ROK).(*smpp.BindResp)
	resp.SystemId = ctx.SystemId
	if b.InterfaceVersion >= smpp.INTERFACE_VERSION {
		resp.Tlvs.Set(smpp.TAG_SC_INTERFACE_VERSION, []byte{smpp.INTERFACE_VERSION})
	}
	res.Response = resp
	res.State.Mode = mode
	res.State.SystemId = b.SystemId
	res.State.AddressRange = b.AddressRange
	res.State.BindAttempts = 0
	systemId := b.SystemId
	res.add(EventEffect(func(conn string, sink EventSink) {
		sink.BindSucceeded(conn, systemId, mode.String())
	}))
}

func bindFailed(ctx *DispatchContext, mode BindMode, systemId string, status uint32, res *Result) {
	res.State.BindAttempts++
	res.add(EventEffect(func(conn string, sink EventSink) {
		sink.BindFailed(conn, systemId, mode.String(), status)
	}))
	if ctx.MaxBindAttempts > 0 && res.State.BindAttempts >= ctx.MaxBindAttempts {
		res.State.Mode = Closed
		res.add(CloseEffect{Reason: "too many bind attempts"})
	}
}

func submit(ctx *DispatchContext, sm *smpp.SubmitSm, res *Result) {
	systemId := res.State.SystemId
	d := ctx.Logic.SubmitSm(systemId, sm)
	if d.Status != smpp.ESME_ROK {
		res.Response = sm.ToResponse(d.Status)
		res.add(EventEffect(func(conn string, sink EventSink) {
			sink.Submitted(systemId, "", d.Status)
		}))
		return
	}

	msg := gosmsc.FromSubmitSm(sm)
	msg.Id = ctx.NextId()
	msg.Namespace = ctx.Namespace
	msg.Owner = systemId
	msg.SubmittedAt = ctx.Now()

	if recipient, ok := ctx.Routes.Lookup(msg.Destination); ok {
		// 目的地址属于某个接收方：作为上行推送，推送结果即投递结果
		msg.Recipient = recipient
		mo := *msg
		res.add(StoreEffect{Message: msg}, EnqueueEffect{Message: &mo})
	} else {
		res.add(StoreEffect{Message: msg}, ReceiptEffect{Message: msg, Delivered: d.Delivered, Delay: d.Delay})
	}

	resp := sm.ToResponse(smpp.ESME_ROK).(*smpp.SubmitSmResp)
	resp.MessageId = msg.Id
	res.Response = resp
	id := msg.Id
	res.add(EventEffect(func(conn string, sink EventSink) {
		sink.Submitted(systemId, id, smpp.ESME_ROK)
	}))
}

// 短信所有者与请求中的源地址（若有）必须一致
func owns(state SessionState, msg *gosmsc.Message, source string) bool {
	return msg.Owner == state.SystemId && (source == "" || source == msg.Source)
}

func query(ctx *DispatchContext, q *smpp.QuerySm, res *Result) {
	msg, ok := ctx.Records.Get(q.MessageId)
	if !ok {
		res.Response = q.ToResponse(smpp.ESME_RINVMSGID)
		return
	}
	if !owns(res.State, msg, q.SourceAddr) {
		res.Response = q.ToResponse(smpp.ESME_RQUERYFAIL)
		return
	}
	resp := q.ToResponse(smpp.ESME_ROK).(*smpp.QuerySmResp)
	resp.MessageId = msg.Id
	resp.MessageState = msg.State
	resp.ErrorCode = msg.ErrorCode
	if msg.Final() {
		resp.FinalDate = smpp.FormatTime(msg.DoneAt)
	}
	res.Response = resp
}

func cancel(ctx *DispatchContext, c *smpp.CancelSm, res *Result) {
	if c.MessageId == "" {
		res.Response = c.ToResponse(smpp.ESME_RINVMSGID)
		return
	}
	msg, ok := ctx.Records.Get(c.MessageId)
	if !ok {
		res.Response = c.ToResponse(smpp.ESME_RINVMSGID)
		return
	}
	if !owns(res.State, msg, c.SourceAddr) || msg.Final() {
		res.Response = c.ToResponse(smpp.ESME_RCANCELFAIL)
		return
	}
	res.Response = c.ToResponse(smpp.ESME_ROK)
	res.add(CancelEffect{MessageId: msg.Id, Recipient: msg.Recipient})
}
