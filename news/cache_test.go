package news

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

func newTestCache(t *testing.T, digestURL string) (*DailyImageCache, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	client := upstream.NewClient(zap.NewNop().Sugar())
	cache := NewDailyImageCache(fs, "cache/news", digestURL, client, zap.NewNop().Sugar())
	cache.SetNowFunc(func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local)
	})
	return cache, fs
}

func TestTodayImageDownloadsOncePerDay(t *testing.T) {
	as := assert.New(t)

	digestCalls := 0
	imageCalls := 0
	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/digest", func(w http.ResponseWriter, r *http.Request) {
		digestCalls++
		fmt.Fprintf(w, `{"code":200,"data":{"imageurl":"%s/img"}}`, srv.URL)
	})
	mux.HandleFunc("/img", func(w http.ResponseWriter, r *http.Request) {
		imageCalls++
		_, _ = w.Write([]byte("PNGDATA"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	cache, fs := newTestCache(t, srv.URL+"/digest")

	path1, err := cache.TodayImage(context.Background())
	as.NoError(err)
	as.Contains(path1, "2026-08-25")

	data, err := afero.ReadFile(fs, path1)
	as.NoError(err)
	as.Equal("PNGDATA", string(data))

	// 第二次调用命中缓存，不再请求上游
	path2, err := cache.TodayImage(context.Background())
	as.NoError(err)
	as.Equal(path1, path2)
	as.Equal(1, digestCalls)
	as.Equal(1, imageCalls)
}

func TestTodayImageNewDayNewDownload(t *testing.T) {
	as := assert.New(t)

	mux := http.NewServeMux()
	var srv *httptest.Server
	mux.HandleFunc("/digest", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"code":200,"data":{"imageurl":"%s/img"}}`, srv.URL)
	})
	mux.HandleFunc("/img", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("PNGDATA"))
	})
	srv = httptest.NewServer(mux)
	defer srv.Close()

	cache, _ := newTestCache(t, srv.URL+"/digest")

	path1, err := cache.TodayImage(context.Background())
	as.NoError(err)

	cache.SetNowFunc(func() time.Time {
		return time.Date(2026, 8, 26, 0, 5, 0, 0, time.Local)
	})
	path2, err := cache.TodayImage(context.Background())
	as.NoError(err)
	as.NotEqual(path1, path2)
	as.Contains(path2, "2026-08-26")
}

func TestTodayImageBadBusinessCode(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":500,"data":{}}`)
	}))
	defer srv.Close()

	cache, fs := newTestCache(t, srv.URL)

	_, err := cache.TodayImage(context.Background())
	as.Error(err)
	var ue *upstream.UpstreamError
	as.ErrorAs(err, &ue)

	// 失败时不应留下任何缓存文件
	entries, _ := afero.ReadDir(fs, "cache/news")
	as.Empty(entries)
}

func TestTodayImageMissingImageURL(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"data":{}}`)
	}))
	defer srv.Close()

	cache, _ := newTestCache(t, srv.URL)

	_, err := cache.TodayImage(context.Background())
	var ue *upstream.UpstreamError
	as.ErrorAs(err, &ue)
}

func TestTodayImageNetworkDown(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	cache, _ := newTestCache(t, srv.URL)

	_, err := cache.TodayImage(context.Background())
	var ne *upstream.NetworkError
	as.ErrorAs(err, &ne)
}

func TestClearRemovesAllCached(t *testing.T) {
	as := assert.New(t)

	cache, fs := newTestCache(t, "http://unused")
	as.NoError(fs.MkdirAll("cache/news", 0o755))
	as.NoError(afero.WriteFile(fs, "cache/news/2026-08-24.png", []byte("a"), 0o644))
	as.NoError(afero.WriteFile(fs, "cache/news/2026-08-25.png", []byte("b"), 0o644))

	as.Equal([]string{"2026-08-24", "2026-08-25"}, cache.CachedDates())

	count, err := cache.Clear()
	as.NoError(err)
	as.Equal(2, count)
	as.Empty(cache.CachedDates())

	// 空目录再次清理是无害的
	count, err = cache.Clear()
	as.NoError(err)
	as.Equal(0, count)
}

func TestClearListFailureSurfaces(t *testing.T) {
	as := assert.New(t)

	// 缓存目录位置被一个普通文件占据，列目录必然失败
	fs := afero.NewMemMapFs()
	as.NoError(afero.WriteFile(fs, "cache/news", []byte("x"), 0o644))

	client := upstream.NewClient(zap.NewNop().Sugar())
	cache := NewDailyImageCache(fs, "cache/news", "http://unused", client, zap.NewNop().Sugar())

	count, err := cache.Clear()
	as.Equal(0, count)
	var pe *upstream.PersistError
	as.ErrorAs(err, &pe)
	as.Equal("list", pe.Op)
}
