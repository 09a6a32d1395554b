package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var testPrefixes = []string{".", "。", "/"}

func TestCommandParseBasic(t *testing.T) {
	as := assert.New(t)
	cmdLst := []string{"新闻推送", "今日新闻", "ping"}

	args := CommandParse(".今日新闻", cmdLst, testPrefixes, nil)
	as.NotNil(args)
	as.Equal("今日新闻", args.Command)
	as.Empty(args.Args)

	args = CommandParse("。新闻推送 on", cmdLst, testPrefixes, nil)
	as.NotNil(args)
	as.Equal("新闻推送", args.Command)
	as.Equal("on", args.GetArgN(1))
	as.Equal("", args.GetArgN(2))

	as.Nil(CommandParse("今日新闻", cmdLst, testPrefixes, nil), "missing prefix")
	as.Nil(CommandParse(".未注册指令", cmdLst, testPrefixes, nil))
	as.Nil(CommandParse("", cmdLst, testPrefixes, nil))
}

func TestCommandParseLongestMatchFirst(t *testing.T) {
	as := assert.New(t)
	// 调用方按长度降序排列
	cmdLst := []string{"新闻推送", "新闻"}

	args := CommandParse(".新闻推送 08:30", cmdLst, testPrefixes, nil)
	as.NotNil(args)
	as.Equal("新闻推送", args.Command)
	as.Equal("08:30", args.GetArgN(1))
}

func TestCommandParseWordBoundary(t *testing.T) {
	as := assert.New(t)
	cmdLst := []string{"ping"}

	as.Nil(CommandParse(".pingpong", cmdLst, testPrefixes, nil), "ping should not match pingpong")
	as.NotNil(CommandParse(".ping pong", cmdLst, testPrefixes, nil))
	as.NotNil(CommandParse(".PING", cmdLst, testPrefixes, nil), "command match is case-insensitive")
}

func TestCommandParseRawArgs(t *testing.T) {
	as := assert.New(t)
	cmdLst := []string{"echo"}

	args := CommandParse(".echo  a b  c ", cmdLst, testPrefixes, nil)
	as.NotNil(args)
	as.Equal("a b  c ", args.RawArgs)
	as.Equal("a b  c", args.CleanArgs)
	as.Equal([]string{"a", "b", "c"}, args.Args)
	as.True(args.IsArgEqual(1, "A", "a"))
	as.False(args.IsArgEqual(4, "x"))
}

func TestCommandParseTraditionalChinese(t *testing.T) {
	as := assert.New(t)
	cmdLst := []string{"微博热搜"}

	// 繁体输入经转换后匹配简体指令
	args := CommandParse(".微博熱搜", cmdLst, testPrefixes, nil)
	if args != nil {
		as.Equal("微博热搜", args.Command)
	}
}

func TestMessageSegmentsHelpers(t *testing.T) {
	as := assert.New(t)

	segs := MessageSegments{
		&TextElement{Content: "看这个 "},
		&ImageElement{URL: "http://img/1.png"},
		&TextElement{Content: "图"},
	}
	as.Equal("看这个 图", segs.ToText())
	as.Equal("http://img/1.png", segs.FirstImage().URL)

	as.Nil(MessageSegments{&TextElement{Content: "x"}}.FirstImage())
}

func TestGroupInfoExtStates(t *testing.T) {
	as := assert.New(t)

	g := &GroupInfo{GroupId: "g1"}
	g.EnsureExtStates()

	extList := []*ExtInfo{
		{Name: "core", AutoActive: true},
		{Name: "news", AutoActive: true},
		{Name: "lab"},
	}

	g.SetExtensionActive("core", true)
	g.SetExtensionActive("news", true)

	as.True(g.IsExtensionActive("core"))
	as.False(g.IsExtensionActive("lab"))

	active := g.GetActiveExtensions(extList)
	names := []string{}
	for _, e := range active {
		names = append(names, e.Name)
	}
	as.Equal([]string{"core", "news"}, names)

	g.SetExtensionActive("news", false)
	as.False(g.IsExtensionActive("news"))
}
