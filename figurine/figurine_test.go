package figurine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

func TestStylize(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		as.Equal("http://img/src.jpg", r.URL.Query().Get("url"))
		as.Equal("2", r.URL.Query().Get("type"))
		fmt.Fprint(w, `{"code":200,"data":{"image":"http://img/out.jpg"}}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, upstream.NewClient(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	out, err := svc.Stylize(context.Background(), "http://img/src.jpg", "2")
	as.NoError(err)
	as.Equal("http://img/out.jpg", out)
}

func TestStylizeUpstreamFailure(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":500,"msg":"内部错误"}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, upstream.NewClient(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	_, err := svc.Stylize(context.Background(), "http://img/src.jpg", "")
	var ue *upstream.UpstreamError
	as.ErrorAs(err, &ue)
	as.Equal(500, ue.Code)
}

func TestWaitTableTakeWithinTTL(t *testing.T) {
	as := assert.New(t)

	wt := NewWaitTable()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local)
	wt.SetNowFunc(func() time.Time { return now })

	wt.Put("u1", "3")
	now = now.Add(9 * time.Second)

	style, ok := wt.Take("u1")
	as.True(ok)
	as.Equal("3", style)

	// 取走即消耗
	_, ok = wt.Take("u1")
	as.False(ok)
}

func TestWaitTableExpires(t *testing.T) {
	as := assert.New(t)

	wt := NewWaitTable()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local)
	wt.SetNowFunc(func() time.Time { return now })

	wt.Put("u1", "1")
	now = now.Add(11 * time.Second)

	_, ok := wt.Take("u1")
	as.False(ok)
}

func TestWaitTablePutOverwrites(t *testing.T) {
	as := assert.New(t)

	wt := NewWaitTable()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.Local)
	wt.SetNowFunc(func() time.Time { return now })

	wt.Put("u1", "1")
	now = now.Add(8 * time.Second)
	wt.Put("u1", "2")
	now = now.Add(8 * time.Second)

	// 第二次登记刷新了过期时间
	style, ok := wt.Take("u1")
	as.True(ok)
	as.Equal("2", style)
}
