package exts

import (
	"context"
	"time"

	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/hotsearch"
)

func RegisterBuiltinExtHotSearch(b *bot.Bot, svc *hotsearch.Service) {
	theExt := &types.ExtInfo{
		Name:       "hotsearch",
		Aliases:    []string{"热搜"},
		Version:    "1.0.0",
		Brief:      "微博热搜榜查询",
		Author:     "xiaotuan",
		AutoActive: true,
		Official:   true,
	}

	cmdHot := &types.CmdItemInfo{
		Name:      "微博热搜",
		ShortHelp: ".微博热搜 // 查看当前热搜榜",
		Help:      "微博热搜:\n.微博热搜",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			fetchCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			reply, err := svc.FormatReply(fetchCtx)
			if err != nil {
				ReplyToSender(ctx, msg, "热搜查询失败，稍后再试试吧")
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}
			ReplyToSender(ctx, msg, reply)
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	theExt.CmdMap = map[string]*types.CmdItemInfo{
		"微博热搜": cmdHot,
		"热搜":   cmdHot,
	}

	b.RegisterExtension(theExt)
}
