package figurine

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

const DefaultURL = "https://api.sxw.cm/api/shouban.php"

// DefaultStyle 不带参数时使用的默认风格
const DefaultStyle = "1"

type stylizeResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Image string `json:"image"`
	} `json:"data"`
}

// Service 手办化图片风格转换
type Service struct {
	url    string
	client *upstream.Client
	log    *zap.SugaredLogger
}

func NewService(apiURL string, client *upstream.Client, log *zap.SugaredLogger) *Service {
	if apiURL == "" {
		apiURL = DefaultURL
	}
	return &Service{url: apiURL, client: client, log: log.Named("figurine")}
}

// Stylize 把原图URL交给上游转换，返回结果图URL
func (s *Service) Stylize(ctx context.Context, imageURL, style string) (string, error) {
	if style == "" {
		style = DefaultStyle
	}

	q := url.Values{}
	q.Set("url", imageURL)
	q.Set("type", style)
	reqURL := fmt.Sprintf("%s?%s", s.url, q.Encode())

	var resp stylizeResponse
	if err := s.client.GetJSON(ctx, "figurine", reqURL, nil, &resp); err != nil {
		return "", err
	}
	if resp.Code != 200 {
		return "", &upstream.UpstreamError{API: "figurine", Code: resp.Code, Detail: resp.Msg}
	}
	if resp.Data.Image == "" {
		return "", &upstream.UpstreamError{API: "figurine", Detail: "missing result image"}
	}

	s.log.Infow("stylize done", "style", style)
	return resp.Data.Image, nil
}
