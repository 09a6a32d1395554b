package bot

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xiaotuan/xiaotuan/bot/types"
)

func (b *Bot) RegisterExtension(extInfo *types.ExtInfo) {
	for _, name := range append(extInfo.Aliases, extInfo.Name) {
		if collide := b.ExtFind(name); collide != nil {
			panicMsg := fmt.Sprintf("扩展<%s>的名字%q与现存扩展<%s>冲突", extInfo.Name, name, collide.Name)
			panic(panicMsg)
		}
	}

	b.ExtList = append(b.ExtList, extInfo)

	if extInfo.OnLoad != nil {
		extInfo.OnLoad()
	}
	extInfo.IsLoaded = true
}

// ExtFind 根据名称或别名查找扩展
func (b *Bot) ExtFind(s string) *types.ExtInfo {
	for _, i := range b.ExtList {
		// 名字匹配，优先级最高
		if i.Name == s {
			return i
		}
	}
	for _, i := range b.ExtList {
		// 别名匹配，优先级次之
		if slices.Contains(i.Aliases, s) {
			return i
		}
	}
	for _, i := range b.ExtList {
		// 忽略大小写匹配，优先级最低
		if strings.EqualFold(i.Name, s) || slices.Contains(i.Aliases, strings.ToLower(s)) {
			return i
		}
	}
	return nil
}

func (b *Bot) GetExtList() []*types.ExtInfo {
	return b.ExtList
}

// Shutdown 依次触发扩展的卸载回调，用于取消定时器等清理动作
func (b *Bot) Shutdown() {
	for _, ext := range b.ExtList {
		if ext.OnUnload != nil {
			ext.OnUnload()
		}
	}
}
