package types

// 消息返回的标准格式

type MsgSendToInfo struct {
	Platform string `json:"platform"`
	GroupId  string `json:"groupId"`
	UserId   string `json:"userId"`
	Nickname string `json:"nickname"`
}

type MsgToReply struct {
	AdapterId string
	CommandId int64

	SendTo MsgSendToInfo

	Time        int64  `json:"time"`
	MessageType string `json:"messageType"` // group private

	Segments MessageSegments `json:"segments" yaml:"-"`
}
