package hotsearch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/upstream"
)

func TestFormatReply(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"data":[
			{"index":1,"title":"第一条","hot":"沸"},
			{"index":2,"title":"第二条","hot":"热"},
			{"index":3,"title":"第三条","hot":""}
		]}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, 0, upstream.NewClient(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	reply, err := svc.FormatReply(context.Background())
	as.NoError(err)
	as.Contains(reply, "微博热搜")
	as.Contains(reply, "1. 第一条")
	as.Contains(reply, "3. 第三条")
}

func TestTopTruncates(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":200,"data":[
			{"index":1,"title":"a"},{"index":2,"title":"b"},{"index":3,"title":"c"}
		]}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, 2, upstream.NewClient(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	items, err := svc.Top(context.Background())
	as.NoError(err)
	as.Len(items, 2)
}

func TestTopBusinessError(t *testing.T) {
	as := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"code":-1,"msg":"接口维护中","data":[]}`)
	}))
	defer srv.Close()

	svc := NewService(srv.URL, 0, upstream.NewClient(zap.NewNop().Sugar()), zap.NewNop().Sugar())
	_, err := svc.Top(context.Background())
	var ue *upstream.UpstreamError
	as.ErrorAs(err, &ue)
	as.Equal("接口维护中", ue.Detail)
}
