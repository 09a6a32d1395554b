package exts

import (
	"context"
	"time"

	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/goldprice"
)

func RegisterBuiltinExtGold(b *bot.Bot, svc *goldprice.Service) {
	theExt := &types.ExtInfo{
		Name:       "goldprice",
		Aliases:    []string{"金价"},
		Version:    "1.0.0",
		Brief:      "黄金白银实时报价查询",
		Author:     "xiaotuan",
		AutoActive: true,
		Official:   true,
	}

	cmdGold := &types.CmdItemInfo{
		Name:      "今日金价",
		ShortHelp: ".今日金价 // 查询各品种贵金属报价",
		Help:      "今日金价:\n.今日金价\n实时查询，不做缓存",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			fetchCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
			defer cancel()

			reply, err := svc.FormatReply(fetchCtx)
			if err != nil {
				ReplyToSender(ctx, msg, "金价查询失败，稍后再试试吧")
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}
			ReplyToSender(ctx, msg, reply)
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	theExt.CmdMap = map[string]*types.CmdItemInfo{
		"今日金价": cmdGold,
		"金价":   cmdGold,
		"gold": cmdGold,
	}

	b.RegisterExtension(theExt)
}
