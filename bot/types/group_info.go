package types

import (
	"golang.org/x/time/rate"

	"github.com/xiaotuan/xiaotuan/utils"
)

// GroupPlayerInfo 群内成员信息
type GroupPlayerInfo struct {
	Name   string `json:"name"   yaml:"name"` // 群内昵称
	UserId string `json:"userId" yaml:"userId"`

	LastCommandTime int64 `json:"lastCommandTime" yaml:"lastCommandTime"` // 上次发送指令时间

	UpdatedAtTime int64 `json:"-" yaml:"-"`
}

type GroupInfo struct {
	Active           bool                                     `json:"active" yaml:"active"` // 是否在群内开启服务
	ActivatedExtList []*ExtInfo                               `json:"-"      yaml:"-"`      // 当前群开启的扩展列表
	ExtActiveStates  *utils.SyncMap[string, bool]             `json:"-"      yaml:"-"`      // 扩展开关状态
	Players          *utils.SyncMap[string, *GroupPlayerInfo] `json:"-"      yaml:"-"`      // 群员信息

	GroupId   string `json:"groupId"   yaml:"groupId"`
	GroupName string `json:"groupName" yaml:"groupName"`

	// 回复限速，防止刷屏指令打爆群
	RateLimiter     *rate.Limiter `json:"-" yaml:"-"`
	RateLimitWarned bool          `json:"-" yaml:"-"`

	EnteredTime   int64 `json:"enteredTime" yaml:"enteredTime"` // 入群时间
	UpdatedAtTime int64 `json:"-"           yaml:"-"`
}

func (g *GroupInfo) EnsureExtStates() {
	if g.ExtActiveStates == nil {
		g.ExtActiveStates = &utils.SyncMap[string, bool]{}
	}
	if g.Players == nil {
		g.Players = &utils.SyncMap[string, *GroupPlayerInfo]{}
	}
}

func (g *GroupInfo) SetExtensionActive(name string, active bool) {
	g.EnsureExtStates()
	g.ExtActiveStates.Store(name, active)
}

func (g *GroupInfo) IsExtensionActive(name string) bool {
	if g.ExtActiveStates == nil {
		return false
	}
	active, ok := g.ExtActiveStates.Load(name)
	return ok && active
}

// GetActiveExtensions 依照全局扩展列表的顺序给出当前群开启的扩展
func (g *GroupInfo) GetActiveExtensions(all []*ExtInfo) []*ExtInfo {
	var out []*ExtInfo
	for _, ext := range all {
		if g.IsExtensionActive(ext.Name) {
			out = append(out, ext)
		}
	}
	return out
}

func (g *GroupInfo) ExtActive(ext *ExtInfo) {
	if ext == nil {
		return
	}
	g.SetExtensionActive(ext.Name, true)
}

func (g *GroupInfo) ExtInactiveByName(name string) *ExtInfo {
	if g.ExtActiveStates == nil {
		return nil
	}
	for _, ext := range g.ActivatedExtList {
		if ext.Name == name {
			g.ExtActiveStates.Store(name, false)
			return ext
		}
	}
	return nil
}
