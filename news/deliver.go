package news

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrBroadcastUnsupported 推送目标必须逐个列出，不支持通配
var ErrBroadcastUnsupported = errors.New("推送目标不支持通配符all，请逐个填写群号")

// DeliveryError 单个目标投递失败
type DeliveryError struct {
	Target string
	Err    error
}

func (e *DeliveryError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("deliver %s: 没有可用的发送通道", e.Target)
	}
	return fmt.Sprintf("deliver %s: %v", e.Target, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Channel 一条可用的消息发送通道，由适配器提供
type Channel interface {
	ID() string
	IsAlive() bool
	SendGroupImage(groupID string, imagePath string) error
}

// DeliveryResult 单个目标的投递结果
type DeliveryResult struct {
	Target  string
	Channel string
	Err     error
}

func (r DeliveryResult) String() string {
	if r.Err == nil {
		return fmt.Sprintf("%s via %s: ok", r.Target, r.Channel)
	}
	return fmt.Sprintf("%s: %v", r.Target, r.Err)
}

// Deliverer 把一张图片扇出到多个目标群，每个目标依次尝试可用通道
type Deliverer struct {
	channels func() []Channel
	log      *zap.SugaredLogger
}

func NewDeliverer(channels func() []Channel, log *zap.SugaredLogger) *Deliverer {
	return &Deliverer{channels: channels, log: log.Named("deliver")}
}

func (d *Deliverer) Deliver(targets []string, imagePath string) ([]DeliveryResult, error) {
	if len(targets) == 0 {
		return nil, nil
	}
	for _, t := range targets {
		if t == "all" || t == "*" {
			return nil, ErrBroadcastUnsupported
		}
	}

	channels := d.channels()
	results := make([]DeliveryResult, 0, len(targets))

	for _, target := range targets {
		result := DeliveryResult{Target: target}
		sent := false
		var lastErr error
		for _, ch := range channels {
			if !ch.IsAlive() {
				continue
			}
			if err := ch.SendGroupImage(target, imagePath); err != nil {
				d.log.Warnw("send failed, trying next channel", "target", target, "channel", ch.ID(), "error", err)
				lastErr = err
				continue
			}
			result.Channel = ch.ID()
			sent = true
			break
		}
		if !sent {
			result.Err = &DeliveryError{Target: target, Err: lastErr}
		}
		results = append(results, result)
		d.log.Infow("delivery", "target", target, "ok", sent)
	}

	return results, nil
}
