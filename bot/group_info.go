package bot

import (
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/utils"
)

// GroupInfoManager 群组信息管理器接口
type GroupInfoManager interface {
	Load(groupId string) (*types.GroupInfo, bool)
	Store(groupId string, groupInfo *types.GroupInfo)
	Delete(groupId string)
}

// DefaultGroupInfoManager 纯内存实现，进程退出后群状态丢失
type DefaultGroupInfoManager struct {
	groupMap *utils.SyncMap[string, *types.GroupInfo]
}

func NewDefaultGroupInfoManager() *DefaultGroupInfoManager {
	return &DefaultGroupInfoManager{
		groupMap: &utils.SyncMap[string, *types.GroupInfo]{},
	}
}

func (m *DefaultGroupInfoManager) Load(groupId string) (*types.GroupInfo, bool) {
	return m.groupMap.Load(groupId)
}

func (m *DefaultGroupInfoManager) Store(groupId string, groupInfo *types.GroupInfo) {
	m.groupMap.Store(groupId, groupInfo)
}

func (m *DefaultGroupInfoManager) Delete(groupId string) {
	m.groupMap.Delete(groupId)
}
