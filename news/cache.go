package news

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

const DefaultDigestURL = "https://api.03c3.cn/api/zb?type=jsonImg"

type digestResponse struct {
	Code int `json:"code"`
	Data struct {
		Image string `json:"imageurl"`
	} `json:"data"`
}

// DailyImageCache 按自然日缓存新闻图，同一天内只下载一次
type DailyImageCache struct {
	fs        afero.Fs
	dir       string
	digestURL string
	client    *upstream.Client
	now       func() time.Time
	log       *zap.SugaredLogger
}

func NewDailyImageCache(fs afero.Fs, dir, digestURL string, client *upstream.Client, log *zap.SugaredLogger) *DailyImageCache {
	if digestURL == "" {
		digestURL = DefaultDigestURL
	}
	return &DailyImageCache{
		fs:        fs,
		dir:       dir,
		digestURL: digestURL,
		client:    client,
		now:       time.Now,
		log:       log.Named("newscache"),
	}
}

func (c *DailyImageCache) dateKey() string {
	return c.now().Format("2006-01-02")
}

func (c *DailyImageCache) pathFor(key string) string {
	return filepath.Join(c.dir, key+".png")
}

// TodayImage 返回当日新闻图的本地路径，缓存命中时不产生网络请求
func (c *DailyImageCache) TodayImage(ctx context.Context) (string, error) {
	key := c.dateKey()
	path := c.pathFor(key)

	if ok, _ := afero.Exists(c.fs, path); ok {
		return path, nil
	}

	var digest digestResponse
	if err := c.client.GetJSON(ctx, "news-digest", c.digestURL, nil, &digest); err != nil {
		return "", err
	}
	if digest.Code != 200 {
		return "", &upstream.UpstreamError{API: "news-digest", Code: digest.Code, Detail: "unexpected business code"}
	}
	if digest.Data.Image == "" {
		return "", &upstream.UpstreamError{API: "news-digest", Detail: "missing image url"}
	}

	data, err := c.client.GetBytes(ctx, "news-image", digest.Data.Image)
	if err != nil {
		return "", err
	}

	if err := c.fs.MkdirAll(c.dir, 0o755); err != nil {
		return "", &upstream.PersistError{Path: c.dir, Op: "mkdir", Err: err}
	}

	// 先写临时文件再改名，下载中途失败不会留下半截缓存
	tmp := path + ".tmp"
	if err := afero.WriteFile(c.fs, tmp, data, 0o644); err != nil {
		return "", &upstream.PersistError{Path: tmp, Op: "write", Err: err}
	}
	if err := c.fs.Rename(tmp, path); err != nil {
		_ = c.fs.Remove(tmp)
		return "", &upstream.PersistError{Path: path, Op: "rename", Err: err}
	}

	c.log.Infow("news image cached", "date", key, "path", path)
	return path, nil
}

// Clear 删除全部已缓存的新闻图，返回删除数量
func (c *DailyImageCache) Clear() (int, error) {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		// 目录还没建过等于空缓存，其余列目录失败要报出来
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, &upstream.PersistError{Path: c.dir, Op: "list", Err: err}
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if filepath.Ext(name) != ".png" && filepath.Ext(name) != ".tmp" {
			continue
		}
		if err := c.fs.Remove(filepath.Join(c.dir, name)); err != nil {
			return count, &upstream.PersistError{Path: name, Op: "remove", Err: err}
		}
		count++
	}
	return count, nil
}

// CachedDates 列出已缓存的日期，调试指令用
func (c *DailyImageCache) CachedDates() []string {
	entries, err := afero.ReadDir(c.fs, c.dir)
	if err != nil {
		return nil
	}

	var dates []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".png" {
			continue
		}
		name := entry.Name()
		dates = append(dates, name[:len(name)-len(".png")])
	}
	sort.Strings(dates)
	return dates
}

// SetNowFunc 测试时注入时钟
func (c *DailyImageCache) SetNowFunc(now func() time.Time) {
	c.now = now
}

func (c *DailyImageCache) String() string {
	return fmt.Sprintf("DailyImageCache(dir=%s)", c.dir)
}
