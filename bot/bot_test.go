package bot

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/xiaotuan/xiaotuan/bot/types"
)

type trackingGroupInfoManager struct {
	inner      GroupInfoManager
	storeCalls int
	lastID     string
}

func newTrackingGroupInfoManager() *trackingGroupInfoManager {
	return &trackingGroupInfoManager{inner: NewDefaultGroupInfoManager()}
}

func (t *trackingGroupInfoManager) Load(groupID string) (*types.GroupInfo, bool) {
	return t.inner.Load(groupID)
}

func (t *trackingGroupInfoManager) Store(groupID string, info *types.GroupInfo) {
	t.storeCalls++
	t.lastID = groupID
	t.inner.Store(groupID, info)
}

func (t *trackingGroupInfoManager) Delete(groupID string) {
	t.inner.Delete(groupID)
}

// registerEchoExt 注册一个简单扩展：.ping回复pong，.off关闭本群
func registerEchoExt(b *Bot) {
	ext := &types.ExtInfo{
		Name:       "core",
		Version:    "1.0.0",
		AutoActive: true,
	}
	ext.CmdMap = map[string]*types.CmdItemInfo{
		"ping": {
			Name: "ping",
			Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
				if !ctx.IsCurGroupBotOn {
					return types.CmdExecuteResult{Matched: true, Solved: true}
				}
				ctx.Bot.SendReply(&types.MsgToReply{
					AdapterId:   ctx.AdapterId,
					MessageType: msg.MessageType,
					Segments:    types.MessageSegments{&types.TextElement{Content: "pong"}},
				})
				return types.CmdExecuteResult{Matched: true, Solved: true}
			},
		},
		"off": {
			Name: "off",
			Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
				ctx.Group.Active = false
				return types.CmdExecuteResult{Matched: true, Solved: true}
			},
		},
		"on": {
			Name: "on",
			Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
				ctx.Group.Active = true
				return types.CmdExecuteResult{Matched: true, Solved: true}
			},
		},
	}
	b.RegisterExtension(ext)
}

func registerOtherExt(b *Bot, replies *[]string) {
	ext := &types.ExtInfo{
		Name:       "other",
		Version:    "1.0.0",
		AutoActive: true,
	}
	ext.CmdMap = map[string]*types.CmdItemInfo{
		"echo": {
			Name: "echo",
			Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
				*replies = append(*replies, "echo:"+cmdArgs.RawArgs)
				return types.CmdExecuteResult{Matched: true, Solved: true}
			},
		},
	}
	b.RegisterExtension(ext)
}

func sendGroupText(b *Bot, content string) {
	b.Execute("test", &types.Message{
		MessageType: "group",
		GroupID:     "QQ-Group:12345",
		Platform:    "test",
		Sender: types.SenderBase{
			UserID:   "QQ:100",
			Nickname: "tester",
		},
		Segments: types.MessageSegments{&types.TextElement{Content: content}},
	})
}

func TestExecuteDispatchesCommand(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)
	registerEchoExt(b)

	var replies []string
	b.CallbackForSendMsg.Store("test", func(msg *types.MsgToReply) {
		replies = append(replies, msg.Segments.ToText())
	})

	sendGroupText(b, ".ping")
	as.Equal([]string{"pong"}, replies)

	// 非指令消息不触发回复
	sendGroupText(b, "hello world")
	as.Len(replies, 1)
}

func TestBotOffDisablesOtherExtensions(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)
	tracker := newTrackingGroupInfoManager()
	b.GroupInfoManager = tracker

	registerEchoExt(b)
	var otherReplies []string
	registerOtherExt(b, &otherReplies)

	sendGroupText(b, ".echo hi")
	as.Equal([]string{"echo:hi"}, otherReplies)
	as.Equal(1, tracker.storeCalls, "group created on first message")
	as.Equal("QQ-Group:12345", tracker.lastID)

	sendGroupText(b, ".off")

	// 群服务关闭后非core扩展不再响应
	sendGroupText(b, ".echo again")
	as.Len(otherReplies, 1)

	// core扩展仍然能把群打开
	sendGroupText(b, ".on")
	sendGroupText(b, ".echo back")
	as.Equal([]string{"echo:hi", "echo:back"}, otherReplies)
}

func TestExecutePrivateUsesUserKey(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)
	tracker := newTrackingGroupInfoManager()
	b.GroupInfoManager = tracker
	registerEchoExt(b)

	var replies []string
	b.CallbackForSendMsg.Store("test", func(msg *types.MsgToReply) {
		replies = append(replies, msg.Segments.ToText())
	})

	b.Execute("test", &types.Message{
		MessageType: "private",
		Platform:    "test",
		Sender: types.SenderBase{
			UserID:   "QQ:200",
			Nickname: "tester",
		},
		Segments: types.MessageSegments{&types.TextElement{Content: ".ping"}},
	})

	as.Equal([]string{"pong"}, replies)
	as.Equal("PRIVATE:QQ:200", tracker.lastID)
}

func TestRateLimitBlocksFlood(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)
	b.Config.ReplyRateInterval = time.Hour
	b.Config.ReplyRateBurst = 2
	registerEchoExt(b)

	var replies []string
	b.CallbackForSendMsg.Store("test", func(msg *types.MsgToReply) {
		replies = append(replies, msg.Segments.ToText())
	})

	for i := 0; i < 5; i++ {
		sendGroupText(b, ".ping")
	}
	as.Len(replies, 2, "only burst-size commands should pass")
}

func TestExtFind(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	b.RegisterExtension(&types.ExtInfo{Name: "news", Aliases: []string{"新闻"}, Version: "1.0.0"})

	as.NotNil(b.ExtFind("news"))
	as.NotNil(b.ExtFind("新闻"))
	as.NotNil(b.ExtFind("News"))
	as.Nil(b.ExtFind("nope"))
}

func TestRegisterExtensionCollisionPanics(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	b.RegisterExtension(&types.ExtInfo{Name: "news", Version: "1.0.0"})
	as.Panics(func() {
		b.RegisterExtension(&types.ExtInfo{Name: "news", Version: "1.0.0"})
	})
}

func TestShutdownFiresUnload(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	unloaded := []string{}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("ext%d", i)
		b.RegisterExtension(&types.ExtInfo{
			Name:     name,
			Version:  "1.0.0",
			OnUnload: func() { unloaded = append(unloaded, name) },
		})
	}

	b.Shutdown()
	as.Equal([]string{"ext0", "ext1", "ext2"}, unloaded)
}
