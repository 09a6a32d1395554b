package news

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Service 组合缓存、调度、投递，供扩展指令和主程序使用
type Service struct {
	Cache     *DailyImageCache
	Scheduler *PushScheduler
	Deliverer *Deliverer
	log       *zap.SugaredLogger
}

func NewService(cache *DailyImageCache, deliverer *Deliverer, clock Clock, log *zap.SugaredLogger) *Service {
	s := &Service{
		Cache:     cache,
		Deliverer: deliverer,
		log:       log.Named("news"),
	}
	s.Scheduler = NewPushScheduler(clock, s.pushTo, log)
	return s
}

func (s *Service) pushTo(targets []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	path, err := s.Cache.TodayImage(ctx)
	if err != nil {
		return err
	}

	results, err := s.Deliverer.Deliver(targets, path)
	if err != nil {
		return err
	}
	for _, r := range results {
		if r.Err != nil {
			s.log.Warnw("push target failed", "result", r.String())
		}
	}
	return nil
}

// PushOnce 立即对配置目标执行一次推送，手动推送指令用
func (s *Service) PushOnce(targets []string) ([]DeliveryResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	path, err := s.Cache.TodayImage(ctx)
	if err != nil {
		return nil, err
	}
	return s.Deliverer.Deliver(targets, path)
}

// SetPushConfig 更新推送配置并重排定时器
func (s *Service) SetPushConfig(cfg PushConfig) {
	s.Scheduler.Reconfigure(cfg)
}

// DebugInfo 推送调试指令的输出
func (s *Service) DebugInfo(cfg PushConfig) string {
	status := "关闭"
	if cfg.Enabled {
		status = fmt.Sprintf("开启 %02d:%02d", cfg.Hour, cfg.Minute)
	}
	next := "无"
	if t := s.Scheduler.NextFireTime(); !t.IsZero() {
		next = t.Format("2006-01-02 15:04")
	}
	return fmt.Sprintf("每日推送: %s\n下次触发: %s\n目标数: %d\n已缓存: %v",
		status, next, len(cfg.Targets), s.Cache.CachedDates())
}
