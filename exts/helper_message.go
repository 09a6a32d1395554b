package exts

import (
	"github.com/xiaotuan/xiaotuan/bot/types"
)

func ReplyToSender(ctx *types.MsgContext, msg *types.Message, text string) {
	replySegments(ctx, msg, types.MessageSegments{&types.TextElement{Content: text}}, msg.MessageType)
}

func ReplyGroup(ctx *types.MsgContext, msg *types.Message, text string) {
	replySegments(ctx, msg, types.MessageSegments{&types.TextElement{Content: text}}, "group")
}

func ReplyPerson(ctx *types.MsgContext, msg *types.Message, text string) {
	replySegments(ctx, msg, types.MessageSegments{&types.TextElement{Content: text}}, "private")
}

// ReplyImageToSender 回复一张图片，本地文件填File，网络图填URL
func ReplyImageToSender(ctx *types.MsgContext, msg *types.Message, img *types.ImageElement) {
	replySegments(ctx, msg, types.MessageSegments{img}, msg.MessageType)
}

func replySegments(ctx *types.MsgContext, msg *types.Message, segments types.MessageSegments, messageType string) {
	var sendToGroupId string
	if messageType == "group" {
		sendToGroupId = msg.GroupID
	}

	ctx.Bot.SendReply(&types.MsgToReply{
		AdapterId: ctx.AdapterId,
		CommandId: ctx.CommandId,
		SendTo: types.MsgSendToInfo{
			Platform: msg.Platform,
			GroupId:  sendToGroupId,
			UserId:   msg.Sender.UserID,
			Nickname: msg.Sender.Nickname,
		},
		Time:        msg.Time,
		MessageType: messageType,
		Segments:    segments,
	})
}
