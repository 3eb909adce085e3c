package memory_test

import (
	"testing"

	"github.com/iamdhrv/bigbluebutton/pkg/store"
	"github.com/iamdhrv/bigbluebutton/pkg/store/memory"
	"github.com/iamdhrv/bigbluebutton/pkg/store/storetest"
)

func TestMemoryStore_Conformance(t *testing.T) {
	storetest.RunConformanceTests(t, func(t *testing.T) store.KV {
		return memory.NewMemoryStore()
	})
}
