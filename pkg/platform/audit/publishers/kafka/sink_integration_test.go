//go:build integration

package kafka_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	id "vaultspark/pkg/domain"
	"vaultspark/pkg/platform/audit"
	"vaultspark/pkg/platform/audit/publishers/kafka"
	"vaultspark/pkg/platform/audit/store/memory"
	"vaultspark/pkg/testutil/containers"
)

func TestSinkProducesToRedpanda(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	rp := containers.GetManager().GetRedpanda(t)
	const topic = "vaultspark.audit.test"

	client, err := kafka.NewClient(rp.Brokers, "vaultspark-test")
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, kafka.EnsureTopic(ctx, client, topic, 1, 1))
	require.NoError(t, kafka.EnsureTopic(ctx, client, topic, 1, 1), "existing topic is not an error")

	fallback := memory.NewInMemoryStore()
	sink := kafka.New(client, topic, fallback)

	userID := id.NewUserID()
	event := audit.Event{
		Category:  audit.CategoryAccount,
		Timestamp: time.Now().UTC(),
		UserID:    userID,
		Action:    string(audit.EventWalletLinked),
		Subject:   "0x00000000000000000000000000000000000000aa",
	}
	require.NoError(t, sink.Append(ctx, event))

	recent, err := fallback.ListRecent(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, recent, "fallback unused while kafka is healthy")

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	var got *kgo.Record
	for got == nil {
		fetches := consumer.PollFetches(ctx)
		require.NoError(t, ctx.Err())
		fetches.EachRecord(func(r *kgo.Record) {
			if got == nil {
				got = r
			}
		})
	}

	require.Equal(t, userID.String(), string(got.Key))
	var decoded audit.Event
	require.NoError(t, json.Unmarshal(got.Value, &decoded))
	require.Equal(t, event.Action, decoded.Action)
	require.Equal(t, userID, decoded.UserID)
}
