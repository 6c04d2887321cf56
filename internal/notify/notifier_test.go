package notify

import (
	"context"
	"errors"
	"testing"

	contractmq "focusflow/contracts/mq"
	"focusflow/pkg/circuitbreaker"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type countingPublisher struct {
	calls []string
	err   error
}

func (p *countingPublisher) PublishWithContext(_ context.Context, routingKey string, _ any) error {
	p.calls = append(p.calls, routingKey)
	return p.err
}

func TestNotifier_PublishesRoutingKeys(t *testing.T) {
	pub := &countingPublisher{}
	n := NewNotifier(pub, zap.NewNop())

	n.SweepCompleted(context.Background(), contractmq.SweepCompletedPayload{Day: "Monday"})
	n.GoalProgressUpdated(context.Background(), contractmq.GoalProgressUpdatedPayload{GoalID: "g"})

	assert.Equal(t, []string{contractmq.RoutingKeySweepCompleted, contractmq.RoutingKeyGoalProgressUpdated}, pub.calls)
}

func TestNotifier_BreakerStopsCallingBrokenBroker(t *testing.T) {
	pub := &countingPublisher{err: errors.New("connection closed")}
	n := NewNotifier(pub, zap.NewNop())

	for i := 0; i < 10; i++ {
		n.SweepCompleted(context.Background(), contractmq.SweepCompletedPayload{})
	}

	assert.Len(t, pub.calls, 3)
	assert.Equal(t, circuitbreaker.StateOpen, n.cb.GetState())
}
