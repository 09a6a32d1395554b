package adapters

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	milky "github.com/Szzrain/Milky-go-sdk"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/utils"
)

// groupNameCacheItem 群组名称缓存项
type groupNameCacheItem struct {
	name string
	time int64
}

// PlatformAdapterMilky Milky 平台适配器
type PlatformAdapterMilky struct {
	WsGateway   string `json:"ws_gateway"   yaml:"ws_gateway"`
	RestGateway string `json:"rest_gateway" yaml:"rest_gateway"`
	Token       string `json:"token"        yaml:"token"`

	IntentSession *milky.Session `json:"-" yaml:"-"`

	groupNameCache utils.SyncMap[string, *groupNameCacheItem]

	callback AdapterCallback
	log      *zap.SugaredLogger
	isAlive  bool
}

func NewPlatformAdapterMilky(wsGateway, restGateway, token string, log *zap.SugaredLogger) *PlatformAdapterMilky {
	return &PlatformAdapterMilky{
		WsGateway:   wsGateway,
		RestGateway: restGateway,
		Token:       token,
		log:         log.Named("milky"),
	}
}

// SetCallback 设置回调接口
func (pa *PlatformAdapterMilky) SetCallback(callback AdapterCallback) {
	pa.callback = callback
}

// IsAlive 检查连接是否存活
func (pa *PlatformAdapterMilky) IsAlive() bool {
	return pa.IntentSession != nil && pa.isAlive
}

func (pa *PlatformAdapterMilky) reportError(err error) {
	if pa.callback != nil {
		pa.callback.OnError(err)
	}
}

func (pa *PlatformAdapterMilky) extractTarget(target any, extract func(string) string) (int64, error) {
	var idStr string
	switch v := target.(type) {
	case string:
		idStr = extract(v)
	case int64:
		idStr = strconv.FormatInt(v, 10)
	default:
		return 0, fmt.Errorf("invalid target ID type: %T", target)
	}
	return strconv.ParseInt(idStr, 10, 64)
}

// MsgSendToGroup 发送消息到群组
func (pa *PlatformAdapterMilky) MsgSendToGroup(request *MessageSendRequest) (bool, error) {
	id, err := pa.extractTarget(request.TargetId, ExtractQQGroupID)
	if err != nil {
		pa.log.Errorf("invalid group id %v: %v", request.TargetId, err)
		pa.reportError(err)
		return false, err
	}

	elements := ParseMessageToMilky(request.Segments)
	ret, err := pa.IntentSession.SendGroupMessage(id, &elements)
	if err != nil {
		pa.log.Errorf("failed to send group message to %d: %v", id, err)
		pa.reportError(err)
		return false, err
	}

	pa.emitEcho(request, "group", strconv.FormatInt(id, 10), ret.MessageSeq)
	return true, nil
}

// MsgSendToPerson 发送消息到个人
func (pa *PlatformAdapterMilky) MsgSendToPerson(request *MessageSendRequest) (bool, error) {
	id, err := pa.extractTarget(request.TargetId, ExtractQQUserID)
	if err != nil {
		pa.log.Errorf("invalid user id %v: %v", request.TargetId, err)
		pa.reportError(err)
		return false, err
	}

	elements := ParseMessageToMilky(request.Segments)
	ret, err := pa.IntentSession.SendPrivateMessage(id, &elements)
	if err != nil {
		pa.log.Errorf("failed to send private message to %d: %v", id, err)
		pa.reportError(err)
		return false, err
	}

	pa.emitEcho(request, "private", "", ret.MessageSeq)
	return true, nil
}

// emitEcho 把发出的消息回显给回调方
func (pa *PlatformAdapterMilky) emitEcho(request *MessageSendRequest, messageType, groupID string, rawID any) {
	if pa.callback == nil {
		return
	}

	msg := &types.Message{
		Platform:    "QQ",
		MessageType: messageType,
		GroupID:     groupID,
		Segments:    request.Segments,
		RawID:       rawID,
		Time:        time.Now().Unix(),
	}
	if request.Sender != nil {
		msg.Sender = types.SenderBase{
			UserID:   request.Sender.UserId,
			Nickname: request.Sender.UserName,
		}
	}

	pa.callback.OnMessageReceived(&MessageSendCallbackInfo{
		Sender:  request.Sender,
		Message: msg,
	})
}

// GroupInfoGet 获取群组信息，带5分钟缓存
func (pa *PlatformAdapterMilky) GroupInfoGet(groupID any) (*GroupInfo, error) {
	id, err := pa.extractTarget(groupID, ExtractQQGroupID)
	if err != nil {
		pa.reportError(err)
		return nil, err
	}
	groupIDStr := strconv.FormatInt(id, 10)

	if cached, ok := pa.groupNameCache.Load(groupIDStr); ok {
		if time.Now().Unix()-cached.time < 300 {
			return &GroupInfo{GroupID: groupIDStr, GroupName: cached.name}, nil
		}
	}

	groupInfo, err := pa.IntentSession.GetGroupInfo(id, false)
	if err != nil {
		pa.log.Errorf("failed to get group info for %s: %v", groupIDStr, err)
		pa.reportError(err)
		return nil, err
	}

	pa.groupNameCache.Store(groupIDStr, &groupNameCacheItem{
		name: groupInfo.Name,
		time: time.Now().Unix(),
	})
	return &GroupInfo{GroupID: groupIDStr, GroupName: groupInfo.Name}, nil
}

// Serve 启动服务
func (pa *PlatformAdapterMilky) Serve() int {
	pa.isAlive = false

	pa.RestGateway = strings.TrimRight(pa.RestGateway, "/")
	pa.WsGateway = strings.TrimRight(pa.WsGateway, "/")

	session, err := milky.New(pa.WsGateway, pa.RestGateway, pa.Token, pa.log)
	if err != nil {
		pa.log.Errorf("milky sdk initialization failed: %v", err)
		return 1
	}
	pa.IntentSession = session

	session.AddHandler(func(_ *milky.Session, m *milky.ReceiveMessage) {
		if m == nil {
			return
		}

		msg := &types.Message{
			Platform: "QQ",
			Time:     m.Time,
			RawID:    m.MessageSeq,
			Sender: types.SenderBase{
				UserID: FormatIDQQ(strconv.FormatInt(m.SenderId, 10)),
			},
		}

		switch m.MessageScene {
		case "group":
			if m.Group == nil || m.GroupMember == nil {
				pa.log.Warnf("received group message without group info: %v", m)
				return
			}
			msg.MessageType = "group"
			msg.GroupID = FormatIDQQGroup(strconv.FormatInt(m.Group.GroupId, 10))
			msg.GroupName = m.Group.Name
			msg.Sender.GroupRole = m.GroupMember.Role
			msg.Sender.Nickname = m.GroupMember.Nickname
		case "friend":
			if m.Friend == nil {
				pa.log.Warnf("received friend message without friend info: %v", m)
				return
			}
			msg.MessageType = "private"
			msg.Sender.Nickname = m.Friend.Nickname
		default:
			return // 临时对话消息，不处理
		}

		msg.Segments = milkySegmentsToMessage(m.Segments)
		if len(msg.Segments) == 0 {
			return
		}

		if pa.callback != nil {
			pa.callback.OnMessageReceived(&MessageSendCallbackInfo{
				Sender: &SimpleUserInfo{
					UserId:   msg.Sender.UserID,
					UserName: msg.Sender.Nickname,
				},
				Message: msg,
			})
		}
	})

	if err := session.Open(); err != nil {
		pa.log.Errorf("milky connect error: %v", err)
		return 1
	}

	pa.isAlive = true
	pa.log.Info("milky connected")
	return 0
}

// DoRelogin 重新登录
func (pa *PlatformAdapterMilky) DoRelogin() bool {
	if pa.IntentSession == nil {
		return pa.Serve() == 0
	}
	_ = pa.IntentSession.Close()
	if err := pa.IntentSession.Open(); err != nil {
		pa.log.Errorf("milky connect error: %v", err)
		pa.isAlive = false
		return false
	}
	pa.isAlive = true
	return true
}

// SetEnable 设置启用状态
func (pa *PlatformAdapterMilky) SetEnable(enable bool) {
	if enable {
		if !pa.IsAlive() {
			pa.DoRelogin()
		}
		return
	}
	if pa.IntentSession != nil {
		_ = pa.IntentSession.Close()
	}
	pa.isAlive = false
}

func milkySegmentsToMessage(segments []milky.IMessageElement) types.MessageSegments {
	var result types.MessageSegments
	for _, segment := range segments {
		switch seg := segment.(type) {
		case *milky.TextElement:
			result = append(result, &types.TextElement{Content: seg.Text})
		case *milky.ImageElement:
			result = append(result, &types.ImageElement{URL: seg.TempURL})
		case *milky.AtElement:
			result = append(result, &types.AtElement{Target: strconv.FormatInt(seg.UserID, 10)})
		case *milky.ReplyElement:
			result = append(result, &types.ReplyElement{ReplySeq: strconv.FormatInt(seg.MessageSeq, 10)})
		}
	}
	return result
}

// ParseMessageToMilky 将消息段转换为 Milky 格式
func ParseMessageToMilky(send []types.IMessageElement) []milky.IMessageElement {
	var elements []milky.IMessageElement
	for _, elem := range send {
		switch e := elem.(type) {
		case *types.TextElement:
			elements = append(elements, &milky.TextElement{Text: e.Content})
		case *types.ImageElement:
			uri := e.URL
			if uri == "" && e.File != "" {
				uri = "file://" + e.File
			}
			elements = append(elements, &milky.ImageElement{URI: uri, SubType: "normal"})
		case *types.AtElement:
			if uid, err := strconv.ParseInt(e.Target, 10, 64); err == nil {
				elements = append(elements, &milky.AtElement{UserID: uid})
			}
		case *types.ReplyElement:
			if seq, err := strconv.ParseInt(e.ReplySeq, 10, 64); err == nil {
				elements = append(elements, &milky.ReplyElement{MessageSeq: seq})
			}
		case *types.RecordElement:
			if e.File != nil {
				elements = append(elements, &milky.RecordElement{URI: e.File.URL})
			}
		}
	}
	return elements
}
