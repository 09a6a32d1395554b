package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/bot/types"
)

const actionTimeout = 15 * time.Second

type sessionRole string

const (
	roleEvent   sessionRole = "event"
	roleAPI     sessionRole = "api"
	roleUnified sessionRole = "unified"
)

// PlatformAdapterOB11 通过WebSocket连接OneBot11端点，正向反向都支持
type PlatformAdapterOB11 struct {
	WSReverseURL  string `json:"ws_reverse" yaml:"ws_reverse"`
	WSForwardAddr string `json:"ws_forward" yaml:"ws_forward"`
	AccessToken   string `json:"access_token" yaml:"access_token"`

	callback AdapterCallback
	log      *zap.SugaredLogger

	running atomic.Bool

	apiSession   atomic.Pointer[ob11Session]
	eventSession atomic.Pointer[ob11Session]

	requestSeq atomic.Uint64
	pending    sync.Map // map[string]chan ob11APIResponse

	forwardServer *http.Server
}

func NewPlatformAdapterOB11(reverseURL, forwardAddr, accessToken string, log *zap.SugaredLogger) *PlatformAdapterOB11 {
	return &PlatformAdapterOB11{
		WSReverseURL:  reverseURL,
		WSForwardAddr: forwardAddr,
		AccessToken:   accessToken,
		log:           log.Named("ob11"),
	}
}

// ob11Session 包装一条websocket连接及其角色
type ob11Session struct {
	conn      *websocket.Conn
	role      sessionRole
	writeMu   sync.Mutex
	closeOnce sync.Once
}

func newOB11Session(conn *websocket.Conn, role sessionRole) *ob11Session {
	return &ob11Session{conn: conn, role: role}
}

func (s *ob11Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

func (s *ob11Session) close() {
	s.closeOnce.Do(func() {
		_ = s.conn.Close()
	})
}

func (pa *PlatformAdapterOB11) SetCallback(callback AdapterCallback) {
	pa.callback = callback
}

func (pa *PlatformAdapterOB11) IsAlive() bool {
	return pa.running.Load()
}

// Serve 按配置启动反向连接和/或正向监听
func (pa *PlatformAdapterOB11) Serve(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	if pa.WSReverseURL == "" && pa.WSForwardAddr == "" {
		pa.log.Warn("ob11 adapter: neither ws_reverse nor ws_forward configured")
		return
	}

	if pa.WSReverseURL != "" {
		go pa.loopReverse(ctx)
	}
	if pa.WSForwardAddr != "" {
		go pa.listenForward(ctx)
	}
}

// Close 关闭所有会话和正向监听
func (pa *PlatformAdapterOB11) Close() {
	if srv := pa.forwardServer; srv != nil {
		_ = srv.Shutdown(context.Background())
	}

	api := pa.apiSession.Swap(nil)
	event := pa.eventSession.Swap(nil)

	if api != nil {
		pa.failPending(errors.New("ob11 adapter closed"))
		api.close()
	}
	if event != nil && event != api {
		event.close()
	}

	pa.running.Store(false)
}

func (pa *PlatformAdapterOB11) loopReverse(ctx context.Context) {
	backoff := time.Second

	for {
		if ctx.Err() != nil {
			return
		}

		if err := pa.connectReverse(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				pa.log.Warnf("ob11 reverse ws connect failed: %v", err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

func (pa *PlatformAdapterOB11) connectReverse(ctx context.Context) error {
	header := http.Header{}
	if pa.AccessToken != "" {
		header.Set("Authorization", "Bearer "+pa.AccessToken)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, pa.WSReverseURL, header)
	if err != nil {
		return err
	}
	session := newOB11Session(conn, roleUnified)
	pa.setSession(session)
	defer pa.clearSession(session, err)

	return pa.consumeSession(ctx, session)
}

func (pa *PlatformAdapterOB11) listenForward(ctx context.Context) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if ctx.Err() != nil {
			http.Error(w, "adapter shutting down", http.StatusServiceUnavailable)
			return
		}

		if pa.AccessToken != "" {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				token = r.URL.Query().Get("access_token")
			}
			if token != pa.AccessToken {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}

		role := determineRole(r)
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			pa.log.Warnf("ob11 forward ws upgrade failed: %v", err)
			return
		}

		session := newOB11Session(conn, role)
		pa.setSession(session)
		defer pa.clearSession(session, nil)

		if err := pa.consumeSession(ctx, session); err != nil && !errors.Is(err, context.Canceled) {
			pa.log.Debugf("ob11 forward ws closed: %v", err)
		}
	})

	server := &http.Server{Addr: pa.WSForwardAddr, Handler: mux}
	pa.forwardServer = server

	go func() {
		<-ctx.Done()
		_ = server.Shutdown(context.Background())
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		pa.log.Errorf("ob11 forward ws listen failed: %v", err)
	}
}

func determineRole(r *http.Request) sessionRole {
	switch strings.ToLower(r.Header.Get("X-Client-Role")) {
	case "event":
		return roleEvent
	case "api":
		return roleAPI
	}

	path := strings.ToLower(r.URL.Path)
	switch {
	case strings.Contains(path, "api"):
		return roleAPI
	case strings.Contains(path, "event"):
		return roleEvent
	default:
		return roleEvent
	}
}

func (pa *PlatformAdapterOB11) consumeSession(ctx context.Context, session *ob11Session) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		_, payload, err := session.conn.ReadMessage()
		if err != nil {
			return err
		}

		if err := pa.dispatchFrame(payload); err != nil {
			pa.log.Debugf("ob11 frame dispatch failed: %v", err)
		}
	}
}

func (pa *PlatformAdapterOB11) dispatchFrame(payload []byte) error {
	var base ob11BaseFrame
	if err := json.Unmarshal(payload, &base); err != nil {
		return err
	}

	if len(base.Echo) != 0 {
		echo := sanitizeRawMessage(base.Echo)
		if chVal, ok := pa.pending.LoadAndDelete(echo); ok {
			var resp ob11APIResponse
			if err := json.Unmarshal(payload, &resp); err != nil {
				resp = ob11APIResponse{Status: "failed", Message: err.Error(), Echo: base.Echo}
			}

			ch := chVal.(chan ob11APIResponse)
			select {
			case ch <- resp:
			default:
			}
		}
		return nil
	}

	if base.PostType != "message" {
		if pa.callback != nil {
			evt, err := pa.convertFrameToEvent(base.PostType, payload)
			if err != nil {
				pa.callback.OnError(err)
				return nil
			}
			if evt != nil {
				pa.callback.OnEvent(evt)
			}
		}
		return nil
	}

	var evt ob11EventEnvelope
	if err := json.Unmarshal(payload, &evt); err != nil {
		return err
	}

	msg := pa.convertEventToMessage(&evt)
	if msg == nil || pa.callback == nil {
		return nil
	}

	pa.callback.OnMessageReceived(&MessageSendCallbackInfo{
		Sender: &SimpleUserInfo{
			UserId:   msg.Sender.UserID,
			UserName: msg.Sender.Nickname,
		},
		Message: msg,
	})

	return nil
}

func (pa *PlatformAdapterOB11) convertFrameToEvent(postType string, payload []byte) (*types.AdapterEvent, error) {
	evt := &types.AdapterEvent{
		Platform: "QQ",
		PostType: postType,
	}

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err == nil {
		evt.Raw = raw
	}

	switch postType {
	case "notice":
		var notice ob11NoticeEvent
		if err := json.Unmarshal(payload, &notice); err != nil {
			return nil, err
		}

		evt.Type = notice.NoticeType
		evt.SubType = notice.SubType
		evt.Time = notice.Time

		if gid := sanitizeRawMessage(notice.GroupID); gid != "" {
			evt.GroupID = FormatIDQQGroup(gid)
		}
		if uid := sanitizeRawMessage(notice.UserID); uid != "" {
			evt.UserID = FormatIDQQ(uid)
		} else if target := sanitizeRawMessage(notice.TargetID); target != "" {
			evt.UserID = FormatIDQQ(target)
		}
		if op := sanitizeRawMessage(notice.OperatorID); op != "" {
			evt.OperatorID = FormatIDQQ(op)
		}

	case "request":
		var req ob11RequestEvent
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}

		evt.Type = req.RequestType
		evt.SubType = req.SubType
		evt.Time = req.Time

		if gid := sanitizeRawMessage(req.GroupID); gid != "" {
			evt.GroupID = FormatIDQQGroup(gid)
		}
		if uid := sanitizeRawMessage(req.UserID); uid != "" {
			evt.UserID = FormatIDQQ(uid)
		}
		if inv := sanitizeRawMessage(req.InvitorID); inv != "" {
			evt.OperatorID = FormatIDQQ(inv)
		}

	case "meta_event":
		var meta ob11MetaEvent
		if err := json.Unmarshal(payload, &meta); err != nil {
			return nil, err
		}

		evt.Type = meta.MetaEventType
		evt.SubType = meta.SubType
		evt.Time = meta.Time
	default:
		// 其他post type原样透传raw
	}

	if evt.Type == "" {
		evt.Type = postType
	}

	return evt, nil
}

func (pa *PlatformAdapterOB11) setSession(session *ob11Session) {
	switch session.role {
	case roleAPI:
		if old := pa.apiSession.Swap(session); old != nil && old != session {
			old.close()
		}
	case roleUnified:
		if old := pa.apiSession.Swap(session); old != nil && old != session {
			old.close()
		}
		if old := pa.eventSession.Swap(session); old != nil && old != session {
			old.close()
		}
	default:
		if old := pa.eventSession.Swap(session); old != nil && old != session {
			old.close()
		}
	}

	pa.running.Store(true)
}

func (pa *PlatformAdapterOB11) clearSession(session *ob11Session, cause error) {
	apiCleared := false
	if pa.apiSession.Load() == session {
		apiCleared = pa.apiSession.CompareAndSwap(session, nil)
	}
	if pa.eventSession.Load() == session {
		pa.eventSession.CompareAndSwap(session, nil)
	}

	session.close()

	if apiCleared {
		if cause == nil {
			cause = errors.New("ob11 api websocket closed")
		}
		pa.failPending(cause)
	}

	if pa.apiSession.Load() == nil && pa.eventSession.Load() == nil {
		pa.running.Store(false)
	}
}

func (pa *PlatformAdapterOB11) failPending(err error) {
	pa.pending.Range(func(key, value any) bool {
		ch := value.(chan ob11APIResponse)
		resp := ob11APIResponse{
			Status:  "failed",
			Message: err.Error(),
		}
		select {
		case ch <- resp:
		default:
		}
		pa.pending.Delete(key)
		return true
	})
}

func (pa *PlatformAdapterOB11) callAction(ctx context.Context, action string, params map[string]any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}

	session := pa.getAPISession()
	if session == nil {
		return errors.New("ob11 adapter: no active API session")
	}

	echo := fmt.Sprintf("xt-%d", pa.requestSeq.Add(1))
	respCh := make(chan ob11APIResponse, 1)
	pa.pending.Store(echo, respCh)

	payload := map[string]any{
		"action": action,
		"params": params,
		"echo":   echo,
	}

	if err := session.writeJSON(payload); err != nil {
		pa.pending.Delete(echo)
		return err
	}

	select {
	case <-ctx.Done():
		pa.pending.Delete(echo)
		return ctx.Err()
	case <-time.After(actionTimeout):
		pa.pending.Delete(echo)
		return errors.New("ob11 adapter: action timeout")
	case resp := <-respCh:
		if resp.Status != "ok" {
			if resp.Message != "" {
				return fmt.Errorf("ob11 adapter: %s", resp.Message)
			}
			return fmt.Errorf("ob11 adapter: retcode=%d", resp.RetCode)
		}
		if out != nil && len(resp.Data) > 0 {
			if err := json.Unmarshal(resp.Data, out); err != nil {
				return err
			}
		}
		return nil
	}
}

func (pa *PlatformAdapterOB11) getAPISession() *ob11Session {
	if ses := pa.apiSession.Load(); ses != nil {
		return ses
	}
	if ses := pa.eventSession.Load(); ses != nil && ses.role == roleUnified {
		return ses
	}
	return nil
}

// MsgSendToGroup 发送群消息
func (pa *PlatformAdapterOB11) MsgSendToGroup(request *MessageSendRequest) (bool, error) {
	gid, err := parseInt64(ExtractQQGroupID(formatAnyID(request.TargetId)))
	if err != nil {
		return false, err
	}

	params := map[string]any{
		"group_id": gid,
		"message":  pa.buildMessage(request.Segments),
	}

	var resp ob11SendResponse
	if err := pa.callAction(context.Background(), "send_group_msg", params, &resp); err != nil {
		return false, err
	}

	pa.emitEcho(request.Segments, request.Sender, "group", FormatIDQQGroup(strconv.FormatInt(gid, 10)), sanitizeRawMessage(resp.MessageID))
	return true, nil
}

// MsgSendToPerson 发送私聊消息
func (pa *PlatformAdapterOB11) MsgSendToPerson(request *MessageSendRequest) (bool, error) {
	uid, err := parseInt64(ExtractQQUserID(formatAnyID(request.TargetId)))
	if err != nil {
		return false, err
	}

	params := map[string]any{
		"user_id": uid,
		"message": pa.buildMessage(request.Segments),
	}

	var resp ob11SendResponse
	if err := pa.callAction(context.Background(), "send_private_msg", params, &resp); err != nil {
		return false, err
	}

	pa.emitEcho(request.Segments, request.Sender, "private", FormatIDQQ(strconv.FormatInt(uid, 10)), sanitizeRawMessage(resp.MessageID))
	return true, nil
}

// GroupInfoGet 查询群信息
func (pa *PlatformAdapterOB11) GroupInfoGet(groupID any) (*GroupInfo, error) {
	gid, err := parseInt64(ExtractQQGroupID(formatAnyID(groupID)))
	if err != nil {
		return nil, err
	}

	var resp struct {
		GroupID   int64  `json:"group_id"`
		GroupName string `json:"group_name"`
	}
	params := map[string]any{"group_id": gid}
	if err := pa.callAction(context.Background(), "get_group_info", params, &resp); err != nil {
		return nil, err
	}

	return &GroupInfo{
		GroupID:   strconv.FormatInt(resp.GroupID, 10),
		GroupName: resp.GroupName,
	}, nil
}

func (pa *PlatformAdapterOB11) convertEventToMessage(evt *ob11EventEnvelope) *types.Message {
	segments := pa.extractSegments(evt.Message)
	if len(segments) == 0 && evt.RawMessage != "" {
		segments = append(segments, &types.TextElement{Content: evt.RawMessage})
	}

	senderID := FormatIDQQ(evt.senderID())
	nickname := evt.senderNickname()
	if nickname == "" {
		nickname = senderID
	}

	msg := &types.Message{
		Platform:    "QQ",
		Time:        evt.Time,
		MessageType: evt.MessageType,
		Segments:    segments,
		Message:     segments.ToText(),
		RawID:       evt.messageID(),
		Sender: types.SenderBase{
			UserID:    senderID,
			Nickname:  nickname,
			GroupRole: evt.senderRole(),
		},
	}

	if evt.MessageType == "group" {
		msg.GroupID = FormatIDQQGroup(evt.groupID())
	}

	if len(msg.Segments) == 0 {
		return nil
	}

	return msg
}

func (pa *PlatformAdapterOB11) extractSegments(raw json.RawMessage) types.MessageSegments {
	var arrayPayload []ob11Segment
	if err := json.Unmarshal(raw, &arrayPayload); err == nil {
		return pa.fromSegments(arrayPayload)
	}

	var plain string
	if err := json.Unmarshal(raw, &plain); err == nil && plain != "" {
		return types.MessageSegments{&types.TextElement{Content: plain}}
	}

	return nil
}

func (pa *PlatformAdapterOB11) fromSegments(src []ob11Segment) types.MessageSegments {
	var result types.MessageSegments
	for _, seg := range src {
		switch seg.Type {
		case "text":
			if text, ok := seg.Data["text"].(string); ok {
				result = append(result, &types.TextElement{Content: text})
			}
		case "image":
			img := &types.ImageElement{}
			if u, ok := seg.Data["url"].(string); ok {
				img.URL = u
			}
			if img.URL == "" {
				if file, ok := seg.Data["file"].(string); ok {
					img.URL = file
				}
			}
			if img.URL != "" {
				result = append(result, img)
			}
		case "at":
			switch qq := seg.Data["qq"].(type) {
			case string:
				result = append(result, &types.AtElement{Target: qq})
			case float64:
				result = append(result, &types.AtElement{Target: strconv.FormatInt(int64(qq), 10)})
			}
		case "reply":
			reply := &types.ReplyElement{}
			if id, ok := seg.Data["id"].(string); ok {
				reply.ReplySeq = id
			}
			if text, ok := seg.Data["text"].(string); ok {
				reply.Elements = append(reply.Elements, &types.TextElement{Content: text})
			}
			result = append(result, reply)
		case "record":
			if file, ok := seg.Data["file"].(string); ok {
				result = append(result, &types.RecordElement{File: &types.FileElement{URL: file}})
			}
		case "poke":
			if target, ok := seg.Data["id"].(string); ok {
				result = append(result, &types.PokeElement{Target: target})
			}
		}
	}
	return result
}

func (pa *PlatformAdapterOB11) buildMessage(segments []types.IMessageElement) []map[string]any {
	result := make([]map[string]any, 0, len(segments))
	for _, elem := range segments {
		switch e := elem.(type) {
		case *types.TextElement:
			result = append(result, map[string]any{
				"type": "text",
				"data": map[string]any{"text": e.Content},
			})
		case *types.ImageElement:
			file := e.URL
			if file == "" && e.File != "" {
				file = "file://" + e.File
			}
			if file == "" {
				pa.log.Debug("ob11: skip image with empty source")
				continue
			}
			result = append(result, map[string]any{
				"type": "image",
				"data": map[string]any{"file": file},
			})
		case *types.AtElement:
			result = append(result, map[string]any{
				"type": "at",
				"data": map[string]any{"qq": e.Target},
			})
		case *types.ReplyElement:
			result = append(result, map[string]any{
				"type": "reply",
				"data": map[string]any{"id": e.ReplySeq},
			})
		case *types.RecordElement:
			var file string
			if e.File != nil {
				file = e.File.URL
				if file == "" {
					file = e.File.File
				}
			}
			if file != "" {
				result = append(result, map[string]any{
					"type": "record",
					"data": map[string]any{"file": file},
				})
			}
		case *types.PokeElement:
			result = append(result, map[string]any{
				"type": "poke",
				"data": map[string]any{"id": e.Target},
			})
		default:
			pa.log.Debugf("ob11: unsupported segment type %T", elem)
		}
	}
	return result
}

func (pa *PlatformAdapterOB11) emitEcho(segs []types.IMessageElement, sender *SimpleUserInfo, messageType, targetID, rawID string) {
	if pa.callback == nil {
		return
	}

	segments := types.MessageSegments(segs)

	msg := &types.Message{
		Platform:    "QQ",
		MessageType: messageType,
		Segments:    segments,
		RawID:       rawID,
		Time:        time.Now().Unix(),
		Message:     segments.ToText(),
	}

	if sender != nil {
		msg.Sender.UserID = sender.UserId
		msg.Sender.Nickname = sender.UserName
	}

	switch messageType {
	case "group":
		msg.GroupID = targetID
	case "private":
		msg.Sender.UserID = targetID
		if msg.Sender.Nickname == "" {
			msg.Sender.Nickname = targetID
		}
	}

	pa.callback.OnMessageReceived(&MessageSendCallbackInfo{
		Sender:  sender,
		Message: msg,
	})
}

func formatAnyID(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func parseInt64(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("ob11 adapter: empty numeric id")
	}
	return strconv.ParseInt(trimmed, 10, 64)
}

func sanitizeRawMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	s := strings.TrimSpace(string(raw))
	s = strings.Trim(s, "\"")
	return s
}

type ob11BaseFrame struct {
	PostType string          `json:"post_type"`
	Echo     json.RawMessage `json:"echo"`
}

type ob11APIResponse struct {
	Status  string          `json:"status"`
	RetCode int64           `json:"retcode"`
	Message string          `json:"message"`
	Wording string          `json:"wording"`
	Data    json.RawMessage `json:"data"`
	Echo    json.RawMessage `json:"echo"`
}

type ob11SendResponse struct {
	MessageID json.RawMessage `json:"message_id"`
}

type ob11Segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

type ob11EventEnvelope struct {
	PostType    string          `json:"post_type"`
	MessageType string          `json:"message_type"`
	Time        int64           `json:"time"`
	RawMessage  string          `json:"raw_message"`
	Message     json.RawMessage `json:"message"`
	GroupID     json.RawMessage `json:"group_id"`
	MessageID   json.RawMessage `json:"message_id"`
	Sender      ob11Sender      `json:"sender"`
}

type ob11NoticeEvent struct {
	PostType   string          `json:"post_type"`
	NoticeType string          `json:"notice_type"`
	SubType    string          `json:"sub_type"`
	Time       int64           `json:"time"`
	GroupID    json.RawMessage `json:"group_id"`
	UserID     json.RawMessage `json:"user_id"`
	OperatorID json.RawMessage `json:"operator_id"`
	TargetID   json.RawMessage `json:"target_id"`
}

type ob11RequestEvent struct {
	PostType    string          `json:"post_type"`
	RequestType string          `json:"request_type"`
	SubType     string          `json:"sub_type"`
	Time        int64           `json:"time"`
	GroupID     json.RawMessage `json:"group_id"`
	UserID      json.RawMessage `json:"user_id"`
	Flag        string          `json:"flag"`
	Comment     string          `json:"comment"`
	InvitorID   json.RawMessage `json:"invitor_id"`
}

type ob11MetaEvent struct {
	PostType      string `json:"post_type"`
	MetaEventType string `json:"meta_event_type"`
	SubType       string `json:"sub_type"`
	Time          int64  `json:"time"`
}

type ob11Sender struct {
	UserID   json.RawMessage `json:"user_id"`
	Nickname string          `json:"nickname"`
	Card     string          `json:"card"`
	Role     string          `json:"role"`
}

func (e *ob11EventEnvelope) senderID() string {
	return sanitizeRawMessage(e.Sender.UserID)
}

func (e *ob11EventEnvelope) senderNickname() string {
	if e.Sender.Card != "" {
		return e.Sender.Card
	}
	return e.Sender.Nickname
}

func (e *ob11EventEnvelope) senderRole() string {
	return e.Sender.Role
}

func (e *ob11EventEnvelope) groupID() string {
	return sanitizeRawMessage(e.GroupID)
}

func (e *ob11EventEnvelope) messageID() string {
	return sanitizeRawMessage(e.MessageID)
}
