package types

type MsgContext struct {
	CommandId int64

	IsCurGroupBotOn bool
	IsPrivate       bool

	AdapterId string

	Group  *GroupInfo
	Player *GroupPlayerInfo

	Bot BotLike
}
