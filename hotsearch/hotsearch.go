package hotsearch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

const DefaultURL = "https://v2.xxapi.cn/api/weibohot"

// DefaultTopN 默认取前20条，再多会刷屏
const DefaultTopN = 20

type hotResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data []Item `json:"data"`
}

type Item struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Hot   string `json:"hot"`
}

// Service 微博热搜查询
type Service struct {
	url    string
	topN   int
	client *upstream.Client
	log    *zap.SugaredLogger
}

func NewService(url string, topN int, client *upstream.Client, log *zap.SugaredLogger) *Service {
	if url == "" {
		url = DefaultURL
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Service{url: url, topN: topN, client: client, log: log.Named("hotsearch")}
}

func (s *Service) Top(ctx context.Context) ([]Item, error) {
	var resp hotResponse
	if err := s.client.GetJSON(ctx, "hotsearch", s.url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, &upstream.UpstreamError{API: "hotsearch", Code: resp.Code, Detail: resp.Msg}
	}
	if len(resp.Data) == 0 {
		return nil, &upstream.UpstreamError{API: "hotsearch", Detail: "empty hot list"}
	}
	if len(resp.Data) > s.topN {
		resp.Data = resp.Data[:s.topN]
	}
	return resp.Data, nil
}

// FormatReply 查询并拼出"N. 标题"形式的回复
func (s *Service) FormatReply(ctx context.Context) (string, error) {
	items, err := s.Top(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("微博热搜\n")
	for i, item := range items {
		idx := item.Index
		if idx == 0 {
			idx = i + 1
		}
		fmt.Fprintf(&sb, "%d. %s\n", idx, item.Title)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
