package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/doorward/gatekeeper/internal/gatekeeper/service"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

type recordingHeartbeatClient struct {
	mu   sync.Mutex
	reqs []types.HeartbeatRequest
	err  error
}

func (c *recordingHeartbeatClient) Heartbeat(_ context.Context, req types.HeartbeatRequest) (types.HeartbeatResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = append(c.reqs, req)
	if c.err != nil {
		return types.HeartbeatResponse{}, c.err
	}
	return types.HeartbeatResponse{OK: true, Known: true, ModuleID: req.ModuleID}, nil
}

func (c *recordingHeartbeatClient) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.reqs)
}

func TestHeartbeatSender_SendsImmediatelyOnStart(t *testing.T) {
	client := &recordingHeartbeatClient{}
	sender := service.NewHeartbeatSender(client, service.HeartbeatConfig{
		ModuleID:        "door-001",
		FirmwareVersion: "1.4.2",
		Interval:        time.Hour, // only the immediate send fires in this test
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sender.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && client.count() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	sender.Stop()

	if client.count() != 1 {
		t.Fatalf("expected exactly 1 heartbeat, got %d", client.count())
	}
	req := client.reqs[0]
	if req.ModuleID != "door-001" || req.FirmwareVersion != "1.4.2" {
		t.Errorf("unexpected heartbeat %+v", req)
	}
}

func TestHeartbeatSender_FailuresAreSilent(t *testing.T) {
	client := &recordingHeartbeatClient{err: errors.New("connection refused")}
	sender := service.NewHeartbeatSender(client, service.HeartbeatConfig{
		ModuleID: "door-001",
		Interval: time.Hour,
	}, silentLogger())

	ctx, cancel := context.WithCancel(context.Background())
	sender.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && client.count() == 0 {
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	sender.Stop() // must not panic or wedge on a failing client
}

func TestHeartbeatSender_DisabledWithNegativeInterval(t *testing.T) {
	client := &recordingHeartbeatClient{}
	sender := service.NewHeartbeatSender(client, service.HeartbeatConfig{
		ModuleID: "door-001",
		Interval: -1,
	}, silentLogger())

	sender.Start(context.Background())
	sender.Stop() // returns immediately

	if client.count() != 0 {
		t.Errorf("disabled sender must not send, got %d", client.count())
	}
}
