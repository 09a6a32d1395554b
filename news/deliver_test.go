package news

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type fakeChannel struct {
	id    string
	alive bool
	fail  bool
	sent  []string
}

func (c *fakeChannel) ID() string    { return c.id }
func (c *fakeChannel) IsAlive() bool { return c.alive }

func (c *fakeChannel) SendGroupImage(groupID, imagePath string) error {
	if c.fail {
		return errors.New("send failed")
	}
	c.sent = append(c.sent, groupID)
	return nil
}

func newTestDeliverer(channels ...Channel) *Deliverer {
	return NewDeliverer(func() []Channel { return channels }, zap.NewNop().Sugar())
}

func TestDeliverEmptyTargetsIsNoop(t *testing.T) {
	as := assert.New(t)

	ch := &fakeChannel{id: "a", alive: true}
	results, err := newTestDeliverer(ch).Deliver(nil, "x.png")
	as.NoError(err)
	as.Empty(results)
	as.Empty(ch.sent)
}

func TestDeliverWildcardRejected(t *testing.T) {
	as := assert.New(t)

	d := newTestDeliverer(&fakeChannel{id: "a", alive: true})
	_, err := d.Deliver([]string{"g1", "all"}, "x.png")
	as.ErrorIs(err, ErrBroadcastUnsupported)
}

func TestDeliverFanOut(t *testing.T) {
	as := assert.New(t)

	ch := &fakeChannel{id: "a", alive: true}
	results, err := newTestDeliverer(ch).Deliver([]string{"g1", "g2", "g3"}, "x.png")
	as.NoError(err)
	as.Len(results, 3)
	as.Equal([]string{"g1", "g2", "g3"}, ch.sent)
	for _, r := range results {
		as.NoError(r.Err)
		as.Equal("a", r.Channel)
	}
}

func TestDeliverFallsBackToNextChannel(t *testing.T) {
	as := assert.New(t)

	dead := &fakeChannel{id: "dead", alive: false}
	broken := &fakeChannel{id: "broken", alive: true, fail: true}
	good := &fakeChannel{id: "good", alive: true}

	results, err := newTestDeliverer(dead, broken, good).Deliver([]string{"g1"}, "x.png")
	as.NoError(err)
	as.Len(results, 1)
	as.NoError(results[0].Err)
	as.Equal("good", results[0].Channel)
	as.Equal([]string{"g1"}, good.sent)
}

func TestDeliverPartialFailureRecorded(t *testing.T) {
	as := assert.New(t)

	broken := &fakeChannel{id: "broken", alive: true, fail: true}
	results, err := newTestDeliverer(broken).Deliver([]string{"g1", "g2"}, "x.png")
	as.NoError(err)
	as.Len(results, 2)
	as.Error(results[0].Err)
	as.Error(results[1].Err)
}

func TestDeliverNoChannels(t *testing.T) {
	as := assert.New(t)

	results, err := newTestDeliverer().Deliver([]string{"g1"}, "x.png")
	as.NoError(err)
	as.Len(results, 1)
	as.Error(results[0].Err)
}
