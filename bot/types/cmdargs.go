package types

import (
	"strings"
	"sync"

	"github.com/lascape/sat"
)

// CmdArgs 一次指令调用的解析结果
type CmdArgs struct {
	Command   string   // 指令名，已去掉前缀
	Args      []string // 空白分割的参数表
	RawArgs   string   // 指令名之后的原始文本
	CleanArgs string   // RawArgs 去除首尾空白
	At        []*AtElement
}

// GetArgN 取第n个参数(从1开始)，越界返回空串
func (a *CmdArgs) GetArgN(n int) string {
	if n <= 0 || n > len(a.Args) {
		return ""
	}
	return a.Args[n-1]
}

func (a *CmdArgs) IsArgEqual(n int, ss ...string) bool {
	val := a.GetArgN(n)
	if val == "" {
		return false
	}
	for _, s := range ss {
		if strings.EqualFold(val, s) {
			return true
		}
	}
	return false
}

var (
	zhConvDict sat.Dicter
	zhConvOnce sync.Once
)

func zhConvert(s string) string {
	zhConvOnce.Do(func() {
		defer func() {
			// 字典加载失败时放弃繁简转换，不影响指令解析
			_ = recover()
		}()
		zhConvDict = sat.DefaultDict()
	})
	if zhConvDict == nil {
		return s
	}
	if converted := zhConvDict.Read(s); converted != "" {
		return converted
	}
	return s
}

// CommandParse 解析一条消息文本，匹配已注册的指令
// cmdLst 需要由调用方按长度降序传入，保证长指令优先匹配
// 繁体指令名会被转换为简体后重试一次
func CommandParse(text string, cmdLst []string, prefixes []string, atElements []*AtElement) *CmdArgs {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	matched := false
	for _, prefix := range prefixes {
		if strings.HasPrefix(text, prefix) {
			text = text[len(prefix):]
			matched = true
			break
		}
	}
	if !matched {
		return nil
	}

	findCmd := func(body string) (string, string) {
		for _, cmd := range cmdLst {
			if !strings.HasPrefix(strings.ToLower(body), strings.ToLower(cmd)) {
				continue
			}
			rest := body[len(cmd):]
			// 指令名后必须是结尾、空白或非ASCII字符，避免 "r" 吃掉 "rank"
			if rest != "" && rest[0] < 0x80 && rest[0] != ' ' {
				continue
			}
			return cmd, rest
		}
		return "", ""
	}

	cmd, rest := findCmd(text)
	if cmd == "" {
		cmd, rest = findCmd(zhConvert(text))
	}
	if cmd == "" {
		return nil
	}

	rawArgs := strings.TrimLeft(rest, " ")
	cleanArgs := strings.TrimSpace(rawArgs)

	var args []string
	if cleanArgs != "" {
		args = strings.Fields(cleanArgs)
	}

	return &CmdArgs{
		Command:   cmd,
		Args:      args,
		RawArgs:   rawArgs,
		CleanArgs: cleanArgs,
		At:        atElements,
	}
}
