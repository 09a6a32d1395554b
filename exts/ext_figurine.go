package exts

import (
	"context"
	"time"

	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/figurine"
)

// RegisterBuiltinExtFigurine 注册手办化扩展。指令不带图时登记等待，
// 该用户10秒内发来的下一张图会被自动取用
func RegisterBuiltinExtFigurine(b *bot.Bot, svc *figurine.Service) {
	waits := figurine.NewWaitTable()

	stylizeAndReply := func(ctx *types.MsgContext, msg *types.Message, imageURL, style string) {
		fetchCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		defer cancel()

		out, err := svc.Stylize(fetchCtx, imageURL, style)
		if err != nil {
			ReplyToSender(ctx, msg, "手办化失败了，稍后再试试吧")
			return
		}
		ReplyImageToSender(ctx, msg, &types.ImageElement{URL: out})
	}

	theExt := &types.ExtInfo{
		Name:       "figurine",
		Aliases:    []string{"手办"},
		Version:    "1.0.0",
		Brief:      "把图片变成手办风格",
		Author:     "xiaotuan",
		AutoActive: true,
		Official:   true,
		OnNotCommandReceived: func(ctx *types.MsgContext, msg *types.Message) {
			img := msg.Segments.FirstImage()
			if img == nil || img.URL == "" {
				return
			}
			style, ok := waits.Take(msg.Sender.UserID)
			if !ok {
				return
			}
			stylizeAndReply(ctx, msg, img.URL, style)
		},
	}

	helpFig := ".手办化 [风格] // 把图片做成手办，可随指令附图或10秒内补发"
	cmdFigurine := &types.CmdItemInfo{
		Name:      "手办化",
		ShortHelp: helpFig,
		Help:      "手办化:\n" + helpFig + "\n风格为数字编号，不填用默认风格",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			style := cmdArgs.GetArgN(1)

			if img := msg.Segments.FirstImage(); img != nil && img.URL != "" {
				stylizeAndReply(ctx, msg, img.URL, style)
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}

			waits.Put(msg.Sender.UserID, style)
			ReplyToSender(ctx, msg, "请在10秒内发送要手办化的图片")
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	theExt.CmdMap = map[string]*types.CmdItemInfo{
		"手办化": cmdFigurine,
	}

	b.RegisterExtension(theExt)
}
