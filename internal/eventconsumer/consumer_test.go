package eventconsumer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRemover struct {
	calls []struct{ org, project string }
}

func (f *fakeRemover) RemoveProjectDisks(ctx context.Context, org, project string) error {
	f.calls = append(f.calls, struct{ org, project string }{org, project})
	return nil
}

func TestDecodeProjectEvent(t *testing.T) {
	raw, err := json.Marshal(ProjectEvent{Type: "project-remove", Org: "acme", Project: "widgets"})
	require.NoError(t, err)

	var event ProjectEvent
	require.NoError(t, json.Unmarshal(raw, &event))
	assert.Equal(t, "project-remove", event.Type)
	assert.Equal(t, "acme", event.Org)
}

func TestNonRemoveEventsAreIgnored(t *testing.T) {
	remover := &fakeRemover{}
	// The client points at an address nothing listens on; handle's ack
	// fails and is only logged, which is all this test needs.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0", MaxRetries: -1})
	defer client.Close()
	c := New(client, "platform-admin", "platform-disk-api", "test", remover, zap.NewNop())

	raw, err := json.Marshal(ProjectEvent{Type: "project-create", Org: "acme", Project: "widgets"})
	require.NoError(t, err)
	c.handle(context.Background(), redis.XMessage{ID: "1-0", Values: map[string]interface{}{"payload": string(raw)}})
	assert.Empty(t, remover.calls)
}
