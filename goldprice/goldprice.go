package goldprice

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

const DefaultURL = "https://free.xwteam.cn/api/gold/trade"

type tradeResponse struct {
	Code int `json:"code"`
	Data struct {
		Gold []Quote `json:"gold"`
	} `json:"data"`
}

// Quote 单个品种的报价
type Quote struct {
	Variety   string `json:"Variety"`
	Latest    string `json:"Latestpri"`
	Open      string `json:"Openpri"`
	High      string `json:"Maxpri"`
	Low       string `json:"Minpri"`
	LimitRate string `json:"Limit"`
}

// Service 金价查询，不做任何本地缓存，每次查询都打上游
type Service struct {
	url    string
	client *upstream.Client
	log    *zap.SugaredLogger
}

func NewService(url string, client *upstream.Client, log *zap.SugaredLogger) *Service {
	if url == "" {
		url = DefaultURL
	}
	return &Service{url: url, client: client, log: log.Named("goldprice")}
}

func (s *Service) Quotes(ctx context.Context) ([]Quote, error) {
	var resp tradeResponse
	if err := s.client.GetJSON(ctx, "goldprice", s.url, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != 200 {
		return nil, &upstream.UpstreamError{API: "goldprice", Code: resp.Code, Detail: "unexpected business code"}
	}
	if len(resp.Data.Gold) == 0 {
		return nil, &upstream.UpstreamError{API: "goldprice", Detail: "empty quote list"}
	}
	return resp.Data.Gold, nil
}

// FormatReply 查询并拼出聊天回复文本
func (s *Service) FormatReply(ctx context.Context) (string, error) {
	quotes, err := s.Quotes(ctx)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("今日金价\n")
	for _, q := range quotes {
		fmt.Fprintf(&sb, "%s: %s (开%s 高%s 低%s %s)\n",
			q.Variety, q.Latest, q.Open, q.High, q.Low, q.LimitRate)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
