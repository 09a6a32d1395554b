package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/bot/types"
)

func newTestBot() *Bot {
	return NewBot(zap.NewNop().Sugar())
}

func TestRegisterAndUnregisterMessageInHook(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	callCount := 0
	hook := func(bl types.BotLike, adapterID string, msg *types.Message, ctx *types.MsgContext) types.HookResult {
		callCount++
		as.Equal("adapter", adapterID, "unexpected adapterID")
		return types.HookResultContinue
	}

	handle, err := b.RegisterMessageInHook("test", types.HookPriorityNormal, hook)
	as.NoError(err)

	aborted := b.runMessageInHooks("adapter", &types.Message{}, &types.MsgContext{})
	as.False(aborted, "runMessageInHooks should not abort for continue result")
	as.Equal(1, callCount, "hook should run exactly once")

	as.True(b.UnregisterMessageInHook(handle), "expected unregister to succeed")
	as.False(b.UnregisterMessageInHook(handle), "unregistering twice should fail")

	callCount = 0
	b.runMessageInHooks("adapter", &types.Message{}, &types.MsgContext{})
	as.Zero(callCount, "hook should not fire after unregistration")
}

func TestRegisterMessageInHookPriorityOrder(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)
	order := []string{}

	makeHook := func(tag string) types.MessageInHook {
		return func(types.BotLike, string, *types.Message, *types.MsgContext) types.HookResult {
			order = append(order, tag)
			return types.HookResultContinue
		}
	}

	_, err := b.RegisterMessageInHook("low", types.HookPriorityLow, makeHook("low"))
	as.NoError(err)
	_, err = b.RegisterMessageInHook("high", types.HookPriorityHigh, makeHook("high"))
	as.NoError(err)
	_, err = b.RegisterMessageInHook("normal", types.HookPriorityNormal, makeHook("normal"))
	as.NoError(err)

	b.runMessageInHooks("adapter", &types.Message{}, &types.MsgContext{})

	expected := []string{"high", "normal", "low"}
	as.Equal(expected, order)
}

func TestMessageInHookAbortStopsDispatch(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	_, err := b.RegisterMessageInHook("abort", types.HookPriorityHigh, func(types.BotLike, string, *types.Message, *types.MsgContext) types.HookResult {
		return types.HookResultAbort
	})
	as.NoError(err)

	laterCalled := false
	_, err = b.RegisterMessageInHook("later", types.HookPriorityLow, func(types.BotLike, string, *types.Message, *types.MsgContext) types.HookResult {
		laterCalled = true
		return types.HookResultContinue
	})
	as.NoError(err)

	aborted := b.runMessageInHooks("adapter", &types.Message{}, &types.MsgContext{})
	as.True(aborted)
	as.False(laterCalled, "abort should short-circuit remaining hooks")
}

func TestRegisterAndUnregisterMessageOutHook(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	callCount := 0
	hook := func(bl types.BotLike, adapterID string, reply *types.MsgToReply) types.HookResult {
		callCount++
		return types.HookResultContinue
	}

	handle, err := b.RegisterMessageOutHook("test", types.HookPriorityNormal, hook)
	as.NoError(err)

	aborted := b.runMessageOutHooks("adapter", &types.MsgToReply{})
	as.False(aborted)
	as.Equal(1, callCount)

	as.True(b.UnregisterMessageOutHook(handle))
	as.False(b.UnregisterMessageOutHook(handle))
}

func TestMessageOutHookAbortSuppressesSend(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	sent := 0
	b.CallbackForSendMsg.Store("test", func(msg *types.MsgToReply) {
		sent++
	})

	_, err := b.RegisterMessageOutHook("mute", types.HookPriorityNormal, func(types.BotLike, string, *types.MsgToReply) types.HookResult {
		return types.HookResultAbort
	})
	as.NoError(err)

	b.SendReply(&types.MsgToReply{MessageType: "group"})
	as.Zero(sent, "aborted reply should never reach send callbacks")
}

func TestEventHooks(t *testing.T) {
	b := newTestBot()
	as := assert.New(t)

	var seen []string
	_, err := b.RegisterEventHook("test", types.HookPriorityNormal, func(bl types.BotLike, adapterID string, evt *types.AdapterEvent) types.HookResult {
		seen = append(seen, evt.Type)
		return types.HookResultContinue
	})
	as.NoError(err)

	b.DispatchEvent("adapter", &types.AdapterEvent{Type: "group_increase"})
	b.DispatchEvent("adapter", nil)

	as.Equal([]string{"group_increase"}, seen)
}
