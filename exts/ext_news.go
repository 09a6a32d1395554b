package exts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/config"
	"github.com/xiaotuan/xiaotuan/news"
	"github.com/xiaotuan/xiaotuan/upstream"
)

// RegisterBuiltinExtNews 注册新闻扩展，initial是启动时的推送配置
func RegisterBuiltinExtNews(b *bot.Bot, svc *news.Service, initial news.PushConfig) {
	var mu sync.Mutex
	cfg := initial

	theExt := &types.ExtInfo{
		Name:       "news",
		Aliases:    []string{"新闻"},
		Version:    "1.0.0",
		Brief:      "每日新闻图查询与定时推送",
		Author:     "xiaotuan",
		AutoActive: true,
		Official:   true,
		OnLoad: func() {
			svc.SetPushConfig(cfg)
		},
		OnUnload: func() {
			svc.Scheduler.Stop()
		},
	}

	cmdMap := map[string]*types.CmdItemInfo{}

	cmdToday := &types.CmdItemInfo{
		Name:      "今日新闻",
		ShortHelp: ".今日新闻 // 获取今天的60秒读懂世界新闻图",
		Help:      "今日新闻:\n.今日新闻\n每天第一次查询会从接口下载，之后当天内直接用本地缓存",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			fetchCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			path, err := svc.Cache.TodayImage(fetchCtx)
			if err != nil {
				var pe *upstream.PersistError
				if errors.As(err, &pe) {
					ReplyToSender(ctx, msg, "新闻图下载成功但保存失败，检查缓存目录")
				} else {
					ReplyToSender(ctx, msg, "新闻获取失败，稍后再试试吧")
				}
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}
			ReplyImageToSender(ctx, msg, &types.ImageElement{File: path})
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdClear := &types.CmdItemInfo{
		Name:      "清理新闻缓存",
		ShortHelp: ".清理新闻缓存 // 删除本地缓存的新闻图",
		Help:      "清理新闻缓存:\n.清理新闻缓存",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			count, err := svc.Cache.Clear()
			if err != nil {
				ReplyToSender(ctx, msg, fmt.Sprintf("清理中断，已删除%d张", count))
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}
			ReplyToSender(ctx, msg, fmt.Sprintf("已清理%d张缓存的新闻图", count))
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdManualPush := &types.CmdItemInfo{
		Name:      "手动推送",
		ShortHelp: ".手动推送 // 立即向配置的目标群推送今日新闻",
		Help:      "手动推送:\n.手动推送\n对配置中的全部目标群立即执行一次新闻推送",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			mu.Lock()
			targets := append([]string{}, cfg.Targets...)
			mu.Unlock()

			if len(targets) == 0 {
				ReplyToSender(ctx, msg, "没有配置推送目标群")
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}

			results, err := svc.PushOnce(targets)
			if err != nil {
				if errors.Is(err, news.ErrBroadcastUnsupported) {
					ReplyToSender(ctx, msg, err.Error())
				} else {
					ReplyToSender(ctx, msg, "推送失败: 新闻图获取不到")
				}
				return types.CmdExecuteResult{Matched: true, Solved: true}
			}

			okCount := 0
			var failed []string
			for _, r := range results {
				if r.Err == nil {
					okCount++
				} else {
					failed = append(failed, r.Target)
				}
			}
			text := fmt.Sprintf("推送完成: 成功%d/%d", okCount, len(results))
			if len(failed) > 0 {
				text += "\n失败: " + strings.Join(failed, ", ")
			}
			ReplyToSender(ctx, msg, text)
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdDebug := &types.CmdItemInfo{
		Name:      "推送调试",
		ShortHelp: ".推送调试 // 查看推送配置和下次触发时间",
		Help:      "推送调试:\n.推送调试",
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			mu.Lock()
			current := cfg
			mu.Unlock()
			ReplyToSender(ctx, msg, svc.DebugInfo(current))
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	helpPush := ".新闻推送 on/off // 开关每日推送\n.新闻推送 HH:MM // 修改推送时间"
	cmdPush := &types.CmdItemInfo{
		Name:      "新闻推送",
		ShortHelp: helpPush,
		Help:      "新闻推送设置:\n" + helpPush,
		Solve: func(ctx *types.MsgContext, msg *types.Message, cmdArgs *types.CmdArgs) types.CmdExecuteResult {
			arg := cmdArgs.GetArgN(1)

			mu.Lock()
			defer mu.Unlock()

			switch arg {
			case "on":
				cfg.Enabled = true
				svc.SetPushConfig(cfg)
				ReplyToSender(ctx, msg, fmt.Sprintf("每日推送已开启，时间%02d:%02d", cfg.Hour, cfg.Minute))
			case "off":
				cfg.Enabled = false
				svc.SetPushConfig(cfg)
				ReplyToSender(ctx, msg, "每日推送已关闭")
			case "":
				return types.CmdExecuteResult{Matched: true, Solved: true, ShowHelp: true}
			default:
				h, m, err := config.ParsePushTime(arg)
				if err != nil {
					ReplyToSender(ctx, msg, "时间格式不对，应为HH:MM，例如08:30")
					return types.CmdExecuteResult{Matched: true, Solved: true}
				}
				cfg.Hour, cfg.Minute = h, m
				svc.SetPushConfig(cfg)
				if cfg.Enabled {
					ReplyToSender(ctx, msg, fmt.Sprintf("推送时间已改为%02d:%02d", h, m))
				} else {
					ReplyToSender(ctx, msg, fmt.Sprintf("推送时间已改为%02d:%02d(推送当前为关闭状态)", h, m))
				}
			}
			return types.CmdExecuteResult{Matched: true, Solved: true}
		},
	}

	cmdMap["今日新闻"] = cmdToday
	cmdMap["新闻"] = cmdToday
	cmdMap["news"] = cmdToday
	cmdMap["清理新闻缓存"] = cmdClear
	cmdMap["手动推送"] = cmdManualPush
	cmdMap["推送调试"] = cmdDebug
	cmdMap["新闻推送"] = cmdPush

	theExt.CmdMap = cmdMap

	b.RegisterExtension(theExt)
}
