package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/peterh/liner"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/xiaotuan/xiaotuan/adapters"
	"github.com/xiaotuan/xiaotuan/bot"
	"github.com/xiaotuan/xiaotuan/bot/types"
	"github.com/xiaotuan/xiaotuan/config"
	"github.com/xiaotuan/xiaotuan/exts"
	"github.com/xiaotuan/xiaotuan/figurine"
	"github.com/xiaotuan/xiaotuan/goldprice"
	"github.com/xiaotuan/xiaotuan/hotsearch"
	"github.com/xiaotuan/xiaotuan/news"
	"github.com/xiaotuan/xiaotuan/upstream"
)

var historyFn = filepath.Join(os.TempDir(), ".xiaotuan_history")

// adapterCallback 把适配器收到的消息和事件转交给bot核心
type adapterCallback struct {
	bot       *bot.Bot
	adapterID string
	log       *zap.SugaredLogger
}

func (cb *adapterCallback) OnError(err error) {
	cb.log.Warnw("adapter error", "adapter", cb.adapterID, "error", err)
}

func (cb *adapterCallback) OnMessageReceived(info *adapters.MessageSendCallbackInfo) {
	if info == nil || info.Message == nil {
		return
	}
	cb.bot.Execute(cb.adapterID, info.Message)
}

func (cb *adapterCallback) OnEvent(evt *types.AdapterEvent) {
	if evt == nil || evt.Type == "heartbeat" {
		return
	}
	cb.bot.DispatchEvent(cb.adapterID, evt)
}

// adapterChannel 把平台适配器包装成新闻推送的发送通道
type adapterChannel struct {
	id string
	pa adapters.PlatformAdapter
}

func (c *adapterChannel) ID() string    { return c.id }
func (c *adapterChannel) IsAlive() bool { return c.pa.IsAlive() }

func (c *adapterChannel) SendGroupImage(groupID string, imagePath string) error {
	_, err := c.pa.MsgSendToGroup(&adapters.MessageSendRequest{
		TargetId: groupID,
		Segments: []types.IMessageElement{&types.ImageElement{File: imagePath}},
	})
	return err
}

func main() {
	cfgPath := "config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	logger := lo.Must(zap.NewDevelopment())
	defer func() { _ = logger.Sync() }()
	log := logger.Sugar()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warnw("config file not found, using defaults", "path", cfgPath)
			cfg = config.Default()
		} else {
			log.Fatalw("config load failed", "error", err)
		}
	}

	b := bot.NewBot(log)
	b.Config.CommandPrefix = cfg.CommandPrefix

	if cfg.GroupDBPath != "" {
		_ = os.MkdirAll(filepath.Dir(cfg.GroupDBPath), 0o755)
		gm, err := bot.NewBuntGroupInfoManager(cfg.GroupDBPath, log)
		if err != nil {
			log.Fatalw("group db open failed", "path", cfg.GroupDBPath, "error", err)
		}
		defer func() { _ = gm.Close() }()
		b.GroupInfoManager = gm
	}

	client := upstream.NewClient(log)

	// 平台适配器
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var channels []news.Channel
	registerAdapter := func(id string, pa adapters.PlatformAdapter) {
		pa.SetCallback(&adapterCallback{bot: b, adapterID: id, log: log})
		channels = append(channels, &adapterChannel{id: id, pa: pa})
		b.CallbackForSendMsg.Store(id, func(msg *types.MsgToReply) {
			if msg == nil || msg.AdapterId != id {
				return
			}
			switch msg.MessageType {
			case "private":
				_, _ = pa.MsgSendToPerson(&adapters.MessageSendRequest{
					TargetId: msg.SendTo.UserId,
					Segments: msg.Segments,
				})
			case "group":
				_, _ = pa.MsgSendToGroup(&adapters.MessageSendRequest{
					TargetId: msg.SendTo.GroupId,
					Segments: msg.Segments,
				})
			}
		})
	}

	if cfg.Adapters.Milky.Enabled {
		endpoint := strings.TrimRight(cfg.Adapters.Milky.Endpoint, "/")
		pa := adapters.NewPlatformAdapterMilky(endpoint+"/event", endpoint+"/api", cfg.Adapters.Milky.Token, log)
		registerAdapter("milky", pa)
		go func() {
			if pa.Serve() != 0 {
				log.Error("milky adapter start failed")
			}
		}()
	}

	if cfg.Adapters.OneBot11.Enabled {
		var reverse, forward string
		if cfg.Adapters.OneBot11.Reverse {
			reverse = cfg.Adapters.OneBot11.URL
		} else {
			forward = cfg.Adapters.OneBot11.URL
		}
		pa := adapters.NewPlatformAdapterOB11(reverse, forward, cfg.Adapters.OneBot11.Token, log)
		registerAdapter("ob11", pa)
		pa.Serve(ctx)
		defer pa.Close()
	}

	// 新闻服务
	cache := news.NewDailyImageCache(afero.NewOsFs(), cfg.NewsPush.CacheDir, cfg.API.NewsDigest, client, log)
	deliverer := news.NewDeliverer(func() []news.Channel { return channels }, log)
	newsService := news.NewService(cache, deliverer, news.NewRealClock(), log)

	pushHour, pushMinute := lo.Must2(config.ParsePushTime(cfg.NewsPush.Time))
	pushCfg := news.PushConfig{
		Enabled: cfg.NewsPush.Enabled,
		Hour:    pushHour,
		Minute:  pushMinute,
		Targets: cfg.NewsPush.Targets,
	}

	// 扩展注册
	exts.RegisterBuiltinExtCore(b)
	exts.RegisterBuiltinExtNews(b, newsService, pushCfg)
	exts.RegisterBuiltinExtGold(b, goldprice.NewService(cfg.API.GoldPrice, client, log))
	exts.RegisterBuiltinExtHotSearch(b, hotsearch.NewService(cfg.API.HotSearch, 0, client, log))
	exts.RegisterBuiltinExtFigurine(b, figurine.NewService(cfg.API.Figurine, client, log))
	defer b.Shutdown()

	// 控制台回显
	b.CallbackForSendMsg.Store("console", func(msg *types.MsgToReply) {
		if msg.AdapterId != "console" {
			return
		}
		fmt.Printf("%s\n", msg.Segments.ToText())
	})

	fmt.Printf("%s %s 已启动，输入指令调试，Ctrl+C退出\n", types.APPNAME, types.VERSION.String())
	runConsole(ctx, b)
}

// runConsole 本地调试用的REPL，把输入当作群消息喂给bot
func runConsole(ctx context.Context, b *bot.Bot) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	if f, err := os.Open(historyFn); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	for {
		if ctx.Err() != nil {
			break
		}

		text, err := line.Prompt(">>> ")
		if err != nil {
			if err == liner.ErrPromptAborted {
				fmt.Println("Interrupted")
			} else {
				fmt.Println("Error reading line:", err)
			}
			break
		}

		if strings.TrimSpace(text) == "" {
			continue
		}
		line.AppendHistory(text)

		b.Execute("console", &types.Message{
			MessageType: "group",
			GroupID:     "console-group",
			Sender: types.SenderBase{
				UserID:   "console-user",
				Nickname: "console",
			},
			Segments: []types.IMessageElement{
				&types.TextElement{Content: text},
			},
		})
	}

	if f, err := os.Create(historyFn); err == nil {
		_, _ = line.WriteHistory(f)
		_ = f.Close()
	}
}
