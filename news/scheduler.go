package news

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Clock 可注入的时钟，测试时替换为假时钟
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func NewRealClock() Clock { return realClock{} }

// PushConfig 每日推送配置，本地时区的时分
type PushConfig struct {
	Enabled bool
	Hour    int
	Minute  int
	Targets []string
}

// PushScheduler 单发一次性定时器，触发后自动续约到次日同一时刻
type PushScheduler struct {
	mu      sync.Mutex
	clock   Clock
	timer   Timer
	target  time.Time
	stopped bool
	cfg     PushConfig
	fire    func(targets []string) error
	log     *zap.SugaredLogger
}

func NewPushScheduler(clock Clock, fire func(targets []string) error, log *zap.SugaredLogger) *PushScheduler {
	return &PushScheduler{
		clock: clock,
		fire:  fire,
		log:   log.Named("newspush"),
	}
}

// nextTarget 当日该时刻未过则定在当日，否则次日
func nextTarget(now time.Time, hour, minute int) time.Time {
	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.Add(24 * time.Hour)
	}
	return target
}

// Reconfigure 取消现有定时器并按新配置重新编排
func (s *PushScheduler) Reconfigure(cfg PushConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked()
	s.cfg = cfg
	s.stopped = false

	if !cfg.Enabled {
		s.log.Infow("daily push disabled")
		return
	}
	s.armLocked(nextTarget(s.clock.Now(), cfg.Hour, cfg.Minute))
}

// Stop 停止推送，之后不再触发
func (s *PushScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

// NextFireTime 下一次触发时间，未编排时返回零值
func (s *PushScheduler) NextFireTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer == nil {
		return time.Time{}
	}
	return s.target
}

func (s *PushScheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *PushScheduler) armLocked(target time.Time) {
	s.target = target
	d := target.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	s.timer = s.clock.AfterFunc(d, s.onFire)
	s.log.Infow("daily push scheduled", "at", target.Format("2006-01-02 15:04"))
}

func (s *PushScheduler) onFire() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	cfg := s.cfg
	prev := s.target
	// 续约基于上次目标时刻而非当前时间，执行耗时不会造成漂移
	s.armLocked(prev.Add(24 * time.Hour))
	s.mu.Unlock()

	// 推送失败只记日志，不影响后续编排
	if err := s.fire(cfg.Targets); err != nil {
		s.log.Errorw("daily push failed", "error", err)
	}
}
