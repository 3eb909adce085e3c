// Package storetest provides a conformance suite for store.KV backends.
//
// Every backend must pass the same suite so the mapping registry behaves
// identically regardless of which store backs it. Backend packages run the
// suite from their own tests with a factory producing a fresh, empty store.
package storetest

import (
	"context"
	"sort"
	"testing"

	"github.com/iamdhrv/bigbluebutton/pkg/store"
)

// Factory creates a fresh, empty store for one test. Cleanup is the
// factory's responsibility (use t.Cleanup).
type Factory func(t *testing.T) store.KV

// RunConformanceTests runs the full backend conformance suite.
func RunConformanceTests(t *testing.T, factory Factory) {
	t.Run("ReadMissingKeyReturnsEmpty", func(t *testing.T) { testReadMissingKey(t, factory) })
	t.Run("WriteAndReadFields", func(t *testing.T) { testWriteAndReadFields(t, factory) })
	t.Run("WriteFieldsIsUpsert", func(t *testing.T) { testWriteFieldsIsUpsert(t, factory) })
	t.Run("DeleteKey", func(t *testing.T) { testDeleteKey(t, factory) })
	t.Run("DeleteMissingKeyIsNoError", func(t *testing.T) { testDeleteMissingKey(t, factory) })
	t.Run("SetMembership", func(t *testing.T) { testSetMembership(t, factory) })
	t.Run("SetAddIsIdempotent", func(t *testing.T) { testSetAddIdempotent(t, factory) })
	t.Run("RemoveMissingMemberIsNoError", func(t *testing.T) { testRemoveMissingMember(t, factory) })
	t.Run("SetsAreIndependent", func(t *testing.T) { testSetsAreIndependent(t, factory) })
}

func testReadMissingKey(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	fields, err := kv.ReadAllFields(ctx, "missing")
	if err != nil {
		t.Fatalf("ReadAllFields() failed: %v", err)
	}
	if len(fields) != 0 {
		t.Errorf("ReadAllFields(missing) = %v, want empty", fields)
	}
}

func testWriteAndReadFields(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	want := map[string]string{
		"id":             "1",
		"internalUserID": "u1",
		"externalUserID": "e1",
		"meetingId":      "m1",
	}
	if err := kv.WriteFields(ctx, "mapping:1", want); err != nil {
		t.Fatalf("WriteFields() failed: %v", err)
	}

	got, err := kv.ReadAllFields(ctx, "mapping:1")
	if err != nil {
		t.Fatalf("ReadAllFields() failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("ReadAllFields() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("field %s = %q, want %q", k, got[k], v)
		}
	}
}

func testWriteFieldsIsUpsert(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	if err := kv.WriteFields(ctx, "k", map[string]string{"a": "1"}); err != nil {
		t.Fatalf("WriteFields() failed: %v", err)
	}
	if err := kv.WriteFields(ctx, "k", map[string]string{"a": "2", "b": "3"}); err != nil {
		t.Fatalf("WriteFields() rewrite failed: %v", err)
	}

	got, err := kv.ReadAllFields(ctx, "k")
	if err != nil {
		t.Fatalf("ReadAllFields() failed: %v", err)
	}
	if got["a"] != "2" || got["b"] != "3" {
		t.Errorf("ReadAllFields() = %v, want a=2 b=3", got)
	}
}

func testDeleteKey(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	if err := kv.WriteFields(ctx, "k", map[string]string{"a": "1"}); err != nil {
		t.Fatalf("WriteFields() failed: %v", err)
	}
	if err := kv.DeleteKey(ctx, "k"); err != nil {
		t.Fatalf("DeleteKey() failed: %v", err)
	}

	got, err := kv.ReadAllFields(ctx, "k")
	if err != nil {
		t.Fatalf("ReadAllFields() failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("ReadAllFields() after delete = %v, want empty", got)
	}
}

func testDeleteMissingKey(t *testing.T, factory Factory) {
	kv := factory(t)

	if err := kv.DeleteKey(context.Background(), "missing"); err != nil {
		t.Errorf("DeleteKey(missing) = %v, want nil", err)
	}
}

func testSetMembership(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	for _, member := range []string{"1", "2", "3"} {
		if err := kv.AddToSet(ctx, "ids", member); err != nil {
			t.Fatalf("AddToSet(%s) failed: %v", member, err)
		}
	}
	if err := kv.RemoveFromSet(ctx, "ids", "2"); err != nil {
		t.Fatalf("RemoveFromSet() failed: %v", err)
	}

	members, err := kv.ListSetMembers(ctx, "ids")
	if err != nil {
		t.Fatalf("ListSetMembers() failed: %v", err)
	}
	sort.Strings(members)
	if len(members) != 2 || members[0] != "1" || members[1] != "3" {
		t.Errorf("ListSetMembers() = %v, want [1 3]", members)
	}
}

func testSetAddIdempotent(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	if err := kv.AddToSet(ctx, "ids", "1"); err != nil {
		t.Fatalf("AddToSet() failed: %v", err)
	}
	if err := kv.AddToSet(ctx, "ids", "1"); err != nil {
		t.Fatalf("AddToSet() repeat failed: %v", err)
	}

	members, err := kv.ListSetMembers(ctx, "ids")
	if err != nil {
		t.Fatalf("ListSetMembers() failed: %v", err)
	}
	if len(members) != 1 {
		t.Errorf("ListSetMembers() = %v, want single member", members)
	}
}

func testRemoveMissingMember(t *testing.T, factory Factory) {
	kv := factory(t)

	if err := kv.RemoveFromSet(context.Background(), "ids", "404"); err != nil {
		t.Errorf("RemoveFromSet(missing) = %v, want nil", err)
	}
}

func testSetsAreIndependent(t *testing.T, factory Factory) {
	kv := factory(t)
	ctx := context.Background()

	if err := kv.AddToSet(ctx, "a", "1"); err != nil {
		t.Fatalf("AddToSet(a) failed: %v", err)
	}
	if err := kv.AddToSet(ctx, "b", "2"); err != nil {
		t.Fatalf("AddToSet(b) failed: %v", err)
	}
	if err := kv.RemoveFromSet(ctx, "a", "1"); err != nil {
		t.Fatalf("RemoveFromSet(a) failed: %v", err)
	}

	members, err := kv.ListSetMembers(ctx, "b")
	if err != nil {
		t.Fatalf("ListSetMembers(b) failed: %v", err)
	}
	if len(members) != 1 || members[0] != "2" {
		t.Errorf("ListSetMembers(b) = %v, want [2]", members)
	}
}
