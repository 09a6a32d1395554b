package adapters

import "github.com/xiaotuan/xiaotuan/bot/types"

type RequestBase struct {
	MessageId string // 消息ID
}

type SimpleUserInfo struct {
	UserId   string // 用户ID
	UserName string // 用户名
}

// AdapterCallback 适配器回调接口
type AdapterCallback interface {
	OnError(err error)
	OnMessageReceived(info *MessageSendCallbackInfo)
	OnEvent(evt *types.AdapterEvent)
}

// MessageSendCallbackInfo 消息回调信息，收到消息和发送回显都走这里
type MessageSendCallbackInfo struct {
	Sender  *SimpleUserInfo
	Message *types.Message
}

// MessageSendRequest 发送消息请求
type MessageSendRequest struct {
	RequestBase
	Sender   *SimpleUserInfo         // 发送者 可不填
	Segments []types.IMessageElement // 消息段
	TargetId any                     // 目标用户ID/群组ID, string或int64
}

// GroupInfo 群组信息
type GroupInfo struct {
	GroupID   any    // 群组ID
	GroupName string // 群组名称
}
