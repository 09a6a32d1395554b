package bot

import (
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/utils"
)

type Bot struct {
	GroupInfoManager GroupInfoManager

	CallbackForSendMsg utils.SyncMap[string, func(msg *types.MsgToReply)]

	inboundHooks  hookRegistry[types.MessageInHook]
	outboundHooks hookRegistry[types.MessageOutHook]
	eventHooks    hookRegistry[types.EventHook]

	ExtList []*types.ExtInfo

	curCommandID atomic.Int64

	log *zap.SugaredLogger

	Config struct {
		CommandPrefix []string
		// 每个群的回复限速，0表示关闭
		ReplyRateInterval time.Duration
		ReplyRateBurst    int
	}
}

func NewBot(log *zap.SugaredLogger) *Bot {
	b := &Bot{
		GroupInfoManager: NewDefaultGroupInfoManager(),

		CallbackForSendMsg: utils.SyncMap[string, func(msg *types.MsgToReply)]{},

		log: log.Named("bot"),
	}

	b.Config.CommandPrefix = []string{".", "。", "/"}
	b.Config.ReplyRateInterval = 2 * time.Second
	b.Config.ReplyRateBurst = 5

	return b
}

func (b *Bot) getNextCommandID() int64 {
	return b.curCommandID.Add(1)
}

func (b *Bot) Execute(adapterID string, msg *types.Message) {
	if msg == nil {
		return
	}

	mctx := &types.MsgContext{Bot: b, AdapterId: adapterID}

	msg.Message = msg.Segments.ToText()
	if msg.MessageType != "group" && msg.MessageType != "private" {
		return
	}
	mctx.IsPrivate = msg.MessageType == "private"

	groupID := msg.GroupID
	if mctx.IsPrivate {
		// 私聊复用群结构，以用户ID作为会话键
		groupID = "PRIVATE:" + msg.Sender.UserID
	}

	groupInfo, ok := b.GroupInfoManager.Load(groupID)
	if !ok {
		groupInfo = &types.GroupInfo{
			GroupId:     groupID,
			GroupName:   msg.GroupName,
			Active:      true,
			EnteredTime: time.Now().Unix(),
		}
		groupInfo.EnsureExtStates()
		for _, ext := range b.GetExtList() {
			if ext.AutoActive {
				groupInfo.SetExtensionActive(ext.Name, true)
			}
		}
		groupInfo.ActivatedExtList = groupInfo.GetActiveExtensions(b.GetExtList())
		b.GroupInfoManager.Store(groupID, groupInfo)
	}

	mctx.Group = groupInfo
	mctx.IsCurGroupBotOn = groupInfo.Active
	mctx.Player = &types.GroupPlayerInfo{
		UserId: msg.Sender.UserID,
		Name:   msg.Sender.Nickname,
	}
	groupInfo.UpdatedAtTime = time.Now().Unix()

	activeExtensions := groupInfo.GetActiveExtensions(b.GetExtList())
	groupInfo.ActivatedExtList = activeExtensions

	if b.runMessageInHooks(adapterID, msg, mctx) {
		return
	}

	cmdLst := []string{}
	for _, ext := range activeExtensions {
		for cmd := range ext.CmdMap {
			cmdLst = append(cmdLst, cmd)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(cmdLst)))

	var atElements []*types.AtElement
	for _, elem := range msg.Segments {
		if at, ok := elem.(*types.AtElement); ok {
			atElements = append(atElements, at)
		}
	}

	cmdArgs := types.CommandParse(msg.Message, cmdLst, b.Config.CommandPrefix, atElements)

	if cmdArgs != nil {
		mctx.CommandId = b.getNextCommandID()

		if !b.allowByRateLimit(groupInfo) {
			return
		}
	}

	for _, _i := range activeExtensions {
		i := _i
		if !mctx.Group.IsExtensionActive(i.Name) {
			continue
		}

		// 群服务关闭时仅core扩展继续响应，保证 .bot on 可用
		if !groupInfo.Active && i.Name != "core" {
			continue
		}

		if i.OnMessageReceived != nil {
			i.OnMessageReceived(mctx, msg)
		}
		if i.OnNotCommandReceived != nil && cmdArgs == nil {
			i.OnNotCommandReceived(mctx, msg)
		}
		if i.OnCommandReceived != nil && cmdArgs != nil {
			i.OnCommandReceived(mctx, msg, cmdArgs)
		}

		if cmdArgs != nil {
			if cmd, ok := i.CmdMap[cmdArgs.Command]; ok {
				if cmd.DisabledInPrivate && mctx.IsPrivate {
					continue
				}
				cmd.Solve(mctx, msg, cmdArgs)
			}
		}
	}
}

// allowByRateLimit 按群限制指令响应频率，超限时只警告一次
func (b *Bot) allowByRateLimit(groupInfo *types.GroupInfo) bool {
	if b.Config.ReplyRateInterval <= 0 {
		return true
	}
	if groupInfo.RateLimiter == nil {
		groupInfo.RateLimiter = rate.NewLimiter(rate.Every(b.Config.ReplyRateInterval), b.Config.ReplyRateBurst)
	}
	if groupInfo.RateLimiter.Allow() {
		groupInfo.RateLimitWarned = false
		return true
	}
	if !groupInfo.RateLimitWarned {
		groupInfo.RateLimitWarned = true
		b.log.Infow("group rate limited", "group", groupInfo.GroupId)
	}
	return false
}

func (b *Bot) SendReply(msg *types.MsgToReply) {
	if msg == nil {
		return
	}

	if b.runMessageOutHooks(msg.AdapterId, msg) {
		return
	}

	b.CallbackForSendMsg.Range(func(key string, value func(msg *types.MsgToReply)) bool {
		value(msg)
		return true
	})
}

func (b *Bot) PersistGroupInfo(groupID string, info *types.GroupInfo) {
	if groupID == "" || info == nil {
		return
	}
	b.GroupInfoManager.Store(groupID, info)
}

func (b *Bot) RegisterMessageInHook(name string, priority types.HookPriority, hook types.MessageInHook) (types.HookHandle, error) {
	return b.inboundHooks.register(name, priority, hook)
}

func (b *Bot) UnregisterMessageInHook(handle types.HookHandle) bool {
	return b.inboundHooks.unregister(handle)
}

func (b *Bot) RegisterMessageOutHook(name string, priority types.HookPriority, hook types.MessageOutHook) (types.HookHandle, error) {
	return b.outboundHooks.register(name, priority, hook)
}

func (b *Bot) UnregisterMessageOutHook(handle types.HookHandle) bool {
	return b.outboundHooks.unregister(handle)
}

func (b *Bot) RegisterEventHook(name string, priority types.HookPriority, hook types.EventHook) (types.HookHandle, error) {
	return b.eventHooks.register(name, priority, hook)
}

func (b *Bot) UnregisterEventHook(handle types.HookHandle) bool {
	return b.eventHooks.unregister(handle)
}

func (b *Bot) DispatchEvent(adapterID string, evt *types.AdapterEvent) {
	if evt == nil {
		return
	}

	b.runEventHooks(adapterID, evt)
}

func (b *Bot) runMessageInHooks(adapterID string, msg *types.Message, mctx *types.MsgContext) bool {
	entries := b.inboundHooks.snapshot()
	if len(entries) == 0 {
		return false
	}

	for _, entry := range entries {
		switch entry.handler(b, adapterID, msg, mctx) {
		case types.HookResultContinue:
			continue
		case types.HookResultStop:
			return false
		case types.HookResultAbort:
			return true
		default:
			continue
		}
	}

	return false
}

func (b *Bot) runMessageOutHooks(adapterID string, reply *types.MsgToReply) bool {
	entries := b.outboundHooks.snapshot()
	if len(entries) == 0 {
		return false
	}

	for _, entry := range entries {
		switch entry.handler(b, adapterID, reply) {
		case types.HookResultContinue:
			continue
		case types.HookResultStop:
			return false
		case types.HookResultAbort:
			return true
		default:
			continue
		}
	}

	return false
}

func (b *Bot) runEventHooks(adapterID string, evt *types.AdapterEvent) {
	entries := b.eventHooks.snapshot()
	if len(entries) == 0 {
		return
	}

	for _, entry := range entries {
		switch entry.handler(b, adapterID, evt) {
		case types.HookResultContinue:
			continue
		case types.HookResultStop:
			return
		case types.HookResultAbort:
			return
		default:
			continue
		}
	}
}
