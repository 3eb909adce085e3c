package badger_test

import (
	"testing"

	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/badger"
	"github.com/iamdhrv/bigbluebutton/pkg/store/storetest"
)

func TestBadgerStore_Conformance(t *testing.T) {
	storetest.RunConformanceTests(t, func(t *testing.T) store.KV {
		kv, err := badger.NewBadgerStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewBadgerStore() failed: %v", err)
		}
		t.Cleanup(func() {
			if err := kv.Close(); err != nil {
				t.Errorf("Close() failed: %v", err)
			}
		})
		return kv
	})
}
