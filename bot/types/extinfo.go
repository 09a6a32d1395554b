package types

type CmdExecuteResult struct {
	Matched  bool // 是否是指令
	Solved   bool // 是否响应此指令
	ShowHelp bool
}

type CmdItemInfo struct {
	Name              string
	ShortHelp         string // 短帮助，格式是 .xxx a b // 说明
	Help              string // 长帮助，带换行的较详细说明
	DisabledInPrivate bool   // 私聊不可用

	Solve func(ctx *MsgContext, msg *Message, cmdArgs *CmdArgs) CmdExecuteResult
}

type CmdMapCls map[string]*CmdItemInfo

type ExtInfo struct {
	Name    string   `json:"name"    yaml:"name"` // 名字
	Aliases []string `json:"aliases" yaml:"-"`    // 别名
	Version string   `json:"version" yaml:"-"`    // 版本

	AutoActive      bool      `json:"-" yaml:"-"` // 是否自动开启
	CmdMap          CmdMapCls `json:"-" yaml:"-"` // 指令集合
	Brief           string    `json:"-" yaml:"-"`
	ActiveOnPrivate bool      `json:"-" yaml:"-"`
	Author          string    `json:"-" yaml:"-"`
	Official        bool      `json:"-" yaml:"-"` // 官方插件

	OnNotCommandReceived func(ctx *MsgContext, msg *Message)                   `json:"-" yaml:"-"` // 指令过滤后剩下的
	OnCommandReceived    func(ctx *MsgContext, msg *Message, cmdArgs *CmdArgs) `json:"-" yaml:"-"`
	OnMessageReceived    func(ctx *MsgContext, msg *Message)                   `json:"-" yaml:"-"`
	GetDescText          func(i *ExtInfo) string                               `json:"-" yaml:"-"`
	IsLoaded             bool                                                  `json:"-" yaml:"-"`
	OnLoad               func()                                                `json:"-" yaml:"-"`
	OnUnload             func()                                                `json:"-" yaml:"-"`
}
