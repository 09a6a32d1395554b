package exts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"

	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
)

// RegisterBuiltinExtCore 注册核心扩展。群服务关闭时该扩展依然响应，
// 保证 .bot on 永远可用
func RegisterBuiltinExtCore(b *bot.Bot) {
	theExt := &types.ExtInfo{
		Name:       "core",
		Version:    "1.0.0",
		Brief:      "核心逻辑模块，该扩展即使被关闭也会依然生效",
		Author:     "xiaotuan",
		AutoActive: true,
		Official:   true,
	}

	cmdMap := map[string]*types.CmdItemInfo{}

	helpHelp := ".help // 显示指令列表\n.help <指令名> // 显示该指令的帮助"
	cmdHelp := &types.CmdItemInfo{
		Name:      "help",
		ShortHelp: helpHelp,
		Help:      "帮助:\n" + helpHelp,
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			target := cmdArgs.GetArgN(1)

			activeExts := ctx.Group.GetActiveExtensions(ctx.Bot.GetExtList())

			if target != "" {
				for _, ext := range activeExts {
					if info, ok := ext.CmdMap[target]; ok {
						text := info.Help
						if text == "" {
							text = info.ShortHelp
						}
						if text == "" {
							text = fmt.Sprintf("指令 %s 暂无帮助信息", target)
						}
						ReplyToSender(ctx, msg, text)
						return types.CmdExecuteResult{Matched: true, Solved: true}
					}
				}
				ReplyToSender(ctx, msg, fmt.Sprintf("未找到指令: %s", target))
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}

			var builder strings.Builder
			builder.WriteString(fmt.Sprintf("%s %s 指令一览:\n", types.APPNAME, types.VERSION.String()))
			for _, ext := range activeExts {
				names := maps.Keys(ext.CmdMap)
				sort.Strings(names)

				seen := map[string]bool{}
				var lines []string
				for _, name := range names {
					info := ext.CmdMap[name]
					if seen[info.Name] {
						continue
					}
					seen[info.Name] = true
					if info.ShortHelp != "" {
						lines = append(lines, info.ShortHelp)
					}
				}
				if len(lines) == 0 {
					continue
				}
				builder.WriteString(fmt.Sprintf("[%s]\n", ext.Name))
				builder.WriteString(strings.Join(lines, "\n"))
				builder.WriteString("\n")
			}
			ReplyToSender(ctx, msg, strings.TrimRight(builder.String(), "\n"))
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	helpBot := ".bot on // 开启当前群服务\n.bot off // 关闭当前群服务\n.bot about // 查看版本信息"
	cmdBot := &types.CmdItemInfo{
		Name:              "bot",
		ShortHelp:         helpBot,
		Help:              "机器人管理:\n" + helpBot,
		DisabledInPrivate: true,
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			switch cmdArgs.GetArgN(1) {
			case "on":
				ctx.Group.Active = true
				b.PersistGroupInfo(ctx.Group.GroupId, ctx.Group)
				ReplyToSender(ctx, msg, fmt.Sprintf("%s已启用，发送.help查看指令", types.APPNAME))
			case "off":
				ctx.Group.Active = false
				b.PersistGroupInfo(ctx.Group.GroupId, ctx.Group)
				ReplyToSender(ctx, msg, fmt.Sprintf("%s已关闭，发送.bot on重新启用", types.APPNAME))
			case "about", "":
				ReplyToSender(ctx, msg, fmt.Sprintf("%s %s\n一个提供每日新闻推送等功能的群聊机器人", types.APPNAME, types.VERSION.String()))
			default:
				return types.CmdExecuteResult{Matched: true, Solved: true, ShowHelp: true}
			}
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	helpExt := ".ext list // 查看扩展列表\n.ext on <名称> // 开启扩展\n.ext off <名称> // 关闭扩展"
	cmdExt := &types.CmdItemInfo{
		Name:      "ext",
		ShortHelp: helpExt,
		Help:      "扩展管理:\n" + helpExt,
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			switch cmdArgs.GetArgN(1) {
			case "list", "":
				var lines []string
				for _, ext := range ctx.Bot.GetExtList() {
					mark := "关"
					if ctx.Group.IsExtensionActive(ext.Name) {
						mark = "开"
					}
					lines = append(lines, fmt.Sprintf("[%s] %s - %s", mark, ext.Name, ext.Brief))
				}
				ReplyToSender(ctx, msg, "扩展列表:\n"+strings.Join(lines, "\n"))
			case "on", "off":
				name := cmdArgs.GetArgN(2)
				ext := ctx.Bot.ExtFind(name)
				if ext == nil {
					ReplyToSender(ctx, msg, fmt.Sprintf("未找到扩展: %s", name))
					return types.CmdExecuteResult{Matched: true, Solved: true}
				}
				active := cmdArgs.GetArgN(1) == "on"
				ctx.Group.SetExtensionActive(ext.Name, active)
				b.PersistGroupInfo(ctx.Group.GroupId, ctx.Group)
				if active {
					ReplyToSender(ctx, msg, fmt.Sprintf("扩展%s已开启", ext.Name))
				} else {
					ReplyToSender(ctx, msg, fmt.Sprintf("扩展%s已关闭", ext.Name))
				}
			default:
				return types.CmdExecuteResult{Matched: true, Solved: true, ShowHelp: true}
			}
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdUserID := &types.CmdItemInfo{
		Name:      "userid",
		ShortHelp: ".userid // 查看自己的ID",
		Help:      "查看ID:\n.userid",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			text := fmt.Sprintf("你的ID: %s", msg.Sender.UserID)
			if msg.MessageType == "group" {
				text += fmt.Sprintf("\n群ID: %s", msg.GroupID)
			}
			ReplyToSender(ctx, msg, text)
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdMap["help"] = cmdHelp
	cmdMap["帮助"] = cmdHelp
	cmdMap["bot"] = cmdBot
	cmdMap["ext"] = cmdExt
	cmdMap["userid"] = cmdUserID

	theExt.CmdMap = cmdMap

	b.RegisterExtension(theExt)
}
