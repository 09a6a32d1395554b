package adapters

import (
	"fmt"
	"strings"
)

// PlatformAdapter 平台适配器接口 - 纯协议接口，不依赖业务上下文
type PlatformAdapter interface {
	// 连接管理
	IsAlive() bool

	// 消息发送
	MsgSendToGroup(request *MessageSendRequest) (bool, error)
	MsgSendToPerson(request *MessageSendRequest) (bool, error)

	// 群组信息
	GroupInfoGet(groupID any) (*GroupInfo, error)

	SetCallback(callback AdapterCallback)
}

// 实现检查
var (
	_ PlatformAdapter = (*PlatformAdapterMilky)(nil)
	_ PlatformAdapter = (*PlatformAdapterOB11)(nil)
)

func FormatIDQQ(userID string) string {
	return fmt.Sprintf("QQ:%s", userID)
}

func FormatIDQQGroup(groupID string) string {
	return fmt.Sprintf("QQ-Group:%s", groupID)
}

// ExtractQQUserID 去掉QQ:前缀，得到裸的号码
func ExtractQQUserID(id string) string {
	if strings.HasPrefix(id, "QQ:") {
		return id[len("QQ:"):]
	}
	return id
}

// ExtractQQGroupID 去掉QQ-Group:前缀，得到裸的群号
func ExtractQQGroupID(id string) string {
	if strings.HasPrefix(id, "QQ-Group:") {
		return id[len("QQ-Group:"):]
	}
	return id
}
