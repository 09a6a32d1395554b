package bot

import (
	"encoding/json"
	"errors"
	"net/url"

	"github.com/tidwall/buntdb"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/utils"
)

// BuntGroupInfoManager 基于buntdb的群信息持久化实现，带内存缓存
type BuntGroupInfoManager struct {
	db    *buntdb.DB
	cache utils.SyncMap[string, *types.GroupInfo]
	log   *zap.SugaredLogger
}

func NewBuntGroupInfoManager(path string, log *zap.SugaredLogger) (*BuntGroupInfoManager, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, err
	}
	return &BuntGroupInfoManager{db: db, log: log.Named("groupdb")}, nil
}

func (m *BuntGroupInfoManager) Close() error {
	return m.db.Close()
}

// storedGroupInfo 持久化字段，运行期字段(限速器、扩展对象)不落盘
type storedGroupInfo struct {
	GroupId         string          `json:"groupId"`
	GroupName       string          `json:"groupName"`
	Active          bool            `json:"active"`
	ExtActiveStates map[string]bool `json:"extActiveStates"`
	EnteredTime     int64           `json:"enteredTime"`
	UpdatedAtTime   int64           `json:"updatedAtTime"`
}

func groupKey(groupId string) string {
	return "group:" + url.QueryEscape(groupId)
}

func groupInfoToStored(info *types.GroupInfo) *storedGroupInfo {
	if info == nil {
		return nil
	}
	stored := &storedGroupInfo{
		GroupId:       info.GroupId,
		GroupName:     info.GroupName,
		Active:        info.Active,
		EnteredTime:   info.EnteredTime,
		UpdatedAtTime: info.UpdatedAtTime,
	}
	if info.ExtActiveStates != nil {
		stored.ExtActiveStates = make(map[string]bool)
		info.ExtActiveStates.Range(func(key string, value bool) bool {
			stored.ExtActiveStates[key] = value
			return true
		})
	}
	return stored
}

func storedToGroupInfo(stored *storedGroupInfo) *types.GroupInfo {
	if stored == nil {
		return nil
	}
	info := &types.GroupInfo{
		GroupId:       stored.GroupId,
		GroupName:     stored.GroupName,
		Active:        stored.Active,
		EnteredTime:   stored.EnteredTime,
		UpdatedAtTime: stored.UpdatedAtTime,
	}
	info.EnsureExtStates()
	for key, value := range stored.ExtActiveStates {
		info.ExtActiveStates.Store(key, value)
	}
	return info
}

func (m *BuntGroupInfoManager) Load(groupId string) (*types.GroupInfo, bool) {
	if groupId == "" {
		return nil, false
	}
	if cached, ok := m.cache.Load(groupId); ok {
		return cached, true
	}
	var loaded *types.GroupInfo
	err := m.db.View(func(tx *buntdb.Tx) error {
		value, err := tx.Get(groupKey(groupId))
		if err != nil {
			if errors.Is(err, buntdb.ErrNotFound) {
				return nil
			}
			return err
		}
		var stored storedGroupInfo
		if err := json.Unmarshal([]byte(value), &stored); err != nil {
			return err
		}
		loaded = storedToGroupInfo(&stored)
		return nil
	})
	if err != nil {
		m.log.Errorw("group info load failed", "group", groupId, "error", err)
		return nil, false
	}
	if loaded == nil {
		return nil, false
	}
	m.cache.Store(groupId, loaded)
	return loaded, true
}

func (m *BuntGroupInfoManager) Store(groupId string, info *types.GroupInfo) {
	if groupId == "" || info == nil {
		return
	}
	payload, err := json.Marshal(groupInfoToStored(info))
	if err != nil {
		m.log.Errorw("group info marshal failed", "group", groupId, "error", err)
		return
	}
	err = m.db.Update(func(tx *buntdb.Tx) error {
		_, _, e := tx.Set(groupKey(groupId), string(payload), nil)
		return e
	})
	if err != nil {
		m.log.Errorw("group info store failed", "group", groupId, "error", err)
		return
	}
	m.cache.Store(groupId, info)
}

func (m *BuntGroupInfoManager) Delete(groupId string) {
	if groupId == "" {
		return
	}
	m.cache.Delete(groupId)
	err := m.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(groupKey(groupId))
		if err != nil && !errors.Is(err, buntdb.ErrNotFound) {
			return err
		}
		return nil
	})
	if err != nil {
		m.log.Errorw("group info delete failed", "group", groupId, "error", err)
	}
}
