package selector

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/dataplanectl/internal/testutil/testlog"
	"github.com/danmuck/dataplanectl/internal/transfer"
)

func testInstance(id string, transferTypes ...string) NodeInstance {
	return NodeInstance{
		ID:                   id,
		ControlURL:           "http://control/api/url/v1/dataflows",
		AllowedSourceTypes:   transfer.NewSet("HttpData"),
		AllowedDestTypes:     transfer.NewSet("AmazonS3"),
		AllowedTransferTypes: transfer.NewSet(transferTypes...),
	}
}

func TestMemoryRegistryAddAndConflict(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	r := NewMemoryRegistry()

	if err := r.AddInstance(ctx, testInstance("node-a", "HttpData-PULL")); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddInstance(ctx, testInstance("node-a", "AmazonS3-PUSH")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	list, err := r.ListInstances(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || !list[0].AllowedTransferTypes.Has("HttpData-PULL") {
		t.Fatalf("conflicting add must not overwrite: %+v", list)
	}
}

func TestMemoryRegistryRejectsInvalidInstance(t *testing.T) {
	testlog.Start(t)
	r := NewMemoryRegistry()
	cases := []NodeInstance{
		{ID: "", ControlURL: "http://control/v1/dataflows"},
		{ID: "node-a", ControlURL: "control/v1/dataflows"},
		{ID: "node-a", ControlURL: ""},
	}
	for _, inst := range cases {
		if err := r.AddInstance(context.Background(), inst); !errors.Is(err, ErrInvalidInstance) {
			t.Fatalf("expected ErrInvalidInstance for %+v, got %v", inst, err)
		}
	}
}

func TestMemoryRegistryUnregister(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	r := NewMemoryRegistry()
	_ = r.AddInstance(ctx, testInstance("node-a"))

	if err := r.Unregister(ctx, "node-a"); err != nil {
		t.Fatalf("unregister: %v", err)
	}
	if err := r.Unregister(ctx, "node-a"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.AddInstance(ctx, testInstance("node-a")); err != nil {
		t.Fatalf("re-add after unregister: %v", err)
	}
}

func TestMemoryRegistryListFilteredAndSorted(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	r := NewMemoryRegistry()
	_ = r.AddInstance(ctx, testInstance("node-z", "HttpData-PULL"))
	_ = r.AddInstance(ctx, testInstance("node-a", "HttpData-PULL", "AmazonS3-PUSH"))
	_ = r.AddInstance(ctx, testInstance("node-m", "AmazonS3-PUSH"))

	list, _ := r.ListInstances(ctx, Filter{TransferType: "HttpData-PULL"})
	ids := make([]string, 0, len(list))
	for _, inst := range list {
		ids = append(ids, inst.ID)
	}
	if want := []string{"node-a", "node-z"}; !reflect.DeepEqual(ids, want) {
		t.Fatalf("unexpected ids: got=%v want=%v", ids, want)
	}

	list, _ = r.ListInstances(ctx, Filter{SourceType: "Missing"})
	if len(list) != 0 {
		t.Fatalf("expected no matches, got %+v", list)
	}
}

func TestMemoryRegistryStoresCopies(t *testing.T) {
	testlog.Start(t)
	ctx := context.Background()
	r := NewMemoryRegistry()
	inst := testInstance("node-a", "HttpData-PULL")
	_ = r.AddInstance(ctx, inst)

	inst.AllowedTransferTypes["Injected-PUSH"] = struct{}{}
	list, _ := r.ListInstances(ctx, Filter{})
	if list[0].AllowedTransferTypes.Has("Injected-PUSH") {
		t.Fatalf("registry shares set storage with caller")
	}
}
