package types

type SenderBase struct {
	Nickname  string `json:"nickname"`
	UserID    string `json:"userId"`
	GroupRole string `json:"-"` // 群内角色 admin管理员 owner群主
}

// Message 消息的重要信息
// 时间、发送地点(群聊/私聊)、人物(是谁发的)、内容
type Message struct {
	Time        int64      `json:"time"`        // 发送时间
	MessageType string     `json:"messageType"` // group private
	GroupID     string     `json:"groupId"`     // 群号，如果是群聊消息
	GroupName   string     `json:"groupName"`
	Sender      SenderBase `json:"sender"`   // 发送者
	Message     string     `json:"message"`  // 消息纯文本内容
	RawID       any        `json:"rawId"`    // 原始信息ID，用于处理撤回等
	Platform    string     `json:"platform"` // 当前平台

	Segments MessageSegments `json:"-" yaml:"-"`
}
