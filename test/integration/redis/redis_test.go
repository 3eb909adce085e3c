//go:build integration

package redis_test

import (
	"context"
	"fmt"
	"os"
	"testing"

	goredis "github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"

	"github.com/iamdhrv/bigbluebutton/pkg/mapping"
	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/redis"
	"github.com/iamdhrv/bigbluebutton/pkg/store/storetest"
)

// Shared Redis container for the whole test run.
var sharedAddress string

func TestMain(m *testing.M) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}

	sharedAddress = fmt.Sprintf("%s:%s", host, port.Port())

	code := m.Run()

	_ = container.Terminate(ctx)
	os.Exit(code)
}

// newStore connects to the shared container and flushes any state left by
// previous tests.
func newStore(t *testing.T) store.KV {
	t.Helper()
	ctx := context.Background()

	client := goredis.NewClient(&goredis.Options{Addr: sharedAddress})
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("failed to flush redis: %v", err)
	}

	s := redis.NewRedisStoreWithClient(client)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore_Conformance(t *testing.T) {
	storetest.RunConformanceTests(t, newStore)
}

// TestRedisStore_KeyLayout pins the on-wire key layout so other consumers
// of the same Redis database can rely on it.
func TestRedisStore_KeyLayout(t *testing.T) {
	ctx := context.Background()
	kv := newStore(t)
	keys := store.NewKeys("")

	registry := mapping.NewRegistry(kv, keys, nil)
	m, err := registry.AddMapping(ctx, "w_abc", "ext-user-1", "meeting-1")
	if err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}

	client := goredis.NewClient(&goredis.Options{Addr: sharedAddress})
	defer client.Close()

	members, err := client.SMembers(ctx, "bbb:webhooks:mappings").Result()
	if err != nil {
		t.Fatalf("SMEMBERS failed: %v", err)
	}
	if len(members) != 1 || members[0] != "1" {
		t.Errorf("expected set members [1], got %v", members)
	}

	fields, err := client.HGetAll(ctx, fmt.Sprintf("bbb:webhooks:mapping:%d", m.ID)).Result()
	if err != nil {
		t.Fatalf("HGETALL failed: %v", err)
	}
	if fields["internalUserID"] != "w_abc" {
		t.Errorf("expected internalUserID field 'w_abc', got %q", fields["internalUserID"])
	}
	if fields["externalUserID"] != "ext-user-1" {
		t.Errorf("expected externalUserID field 'ext-user-1', got %q", fields["externalUserID"])
	}
	if fields["meetingId"] != "meeting-1" {
		t.Errorf("expected meetingId field 'meeting-1', got %q", fields["meetingId"])
	}
}

// TestRedisStore_RegistrySurvivesRestart verifies mappings written through
// one registry are rebuilt by a second registry over the same server.
func TestRedisStore_RegistrySurvivesRestart(t *testing.T) {
	ctx := context.Background()
	kv := newStore(t)
	keys := store.NewKeys("")

	first := mapping.NewRegistry(kv, keys, nil)
	if _, err := first.AddMapping(ctx, "w_a", "ext-a", "meeting-1"); err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}
	if _, err := first.AddMapping(ctx, "w_b", "ext-b", "meeting-2"); err != nil {
		t.Fatalf("AddMapping failed: %v", err)
	}

	second := mapping.NewRegistry(kv, keys, nil)
	if err := second.Resync(ctx); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	if got, ok := second.LookupExternalUserID("w_a"); !ok || got != "ext-a" {
		t.Errorf("expected ext-a for w_a after resync, got %q (ok=%v)", got, ok)
	}

	m, err := second.AddMapping(ctx, "w_c", "ext-c", "meeting-1")
	if err != nil {
		t.Fatalf("AddMapping after resync failed: %v", err)
	}
	if m.ID != 3 {
		t.Errorf("expected id 3 after resync, got %d", m.ID)
	}
}
