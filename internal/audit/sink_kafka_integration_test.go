//go:build integration

package audit_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"grievance/internal/audit"
	id "grievance/pkg/domain"
	"grievance/pkg/testutil/containers"
)

func TestKafkaSink(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	rp := containers.NewRedpandaContainer(t)
	defer func() { _ = rp.Container.Terminate(ctx) }()

	const topic = "complaint-audit"

	admClient, err := kgo.NewClient(kgo.SeedBrokers(rp.Broker))
	require.NoError(t, err)
	defer admClient.Close()

	adm := kadm.NewClient(admClient)
	_, err = adm.CreateTopics(ctx, 1, 1, nil, topic)
	require.NoError(t, err)

	sink, err := audit.NewKafkaSink([]string{rp.Broker}, topic)
	require.NoError(t, err)
	defer sink.Close()

	complaintID := id.ComplaintID(uuid.New())
	events := []audit.Event{
		{
			Timestamp:   time.Now().UTC(),
			Action:      audit.ActionComplaintCreated,
			ComplaintID: complaintID,
			ActorKind:   string(id.ActorKindCitizen),
			ToStatus:    "NEW",
		},
		{
			Timestamp:   time.Now().UTC(),
			Action:      audit.ActionStatusChanged,
			ComplaintID: complaintID,
			ActorKind:   string(id.ActorKindStaff),
			FromStatus:  "NEW",
			ToStatus:    "IN_REVIEW",
		},
	}
	for _, event := range events {
		require.NoError(t, sink.Append(ctx, event))
	}

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(rp.Broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var records []*kgo.Record
	for len(records) < len(events) {
		fetches := consumer.PollFetches(fetchCtx)
		require.NoError(t, fetches.Err())
		records = append(records, fetches.Records()...)
	}
	require.Len(t, records, len(events))

	// Events for one complaint share a key, so they land on one partition in
	// the order they were produced.
	for i, record := range records {
		require.Equal(t, complaintID.String(), string(record.Key))

		var got audit.Event
		require.NoError(t, json.Unmarshal(record.Value, &got))
		require.Equal(t, events[i].Action, got.Action)
		require.Equal(t, events[i].ToStatus, got.ToStatus)
	}
}
