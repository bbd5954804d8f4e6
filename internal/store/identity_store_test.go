package store_test

import (
	"testing"
	"time"

	"burna/internal/domain"
	"burna/internal/store"
)

func TestIdentity_SaveLoad_OK(t *testing.T) {
	home := t.TempDir()
	var ds domain.DeviceStore = store.NewIdentityFileStore(home)

	if _, ok, err := ds.LoadDevice(); err != nil || ok {
		t.Fatalf("fresh install: ok=%v err=%v", ok, err)
	}

	dev := domain.Device{AnonymousID: "anon_abc", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	if err := ds.SaveDevice(dev); err != nil {
		t.Fatalf("save device: %v", err)
	}

	got, ok, err := store.NewIdentityFileStore(home).LoadDevice()
	if err != nil || !ok {
		t.Fatalf("load device: ok=%v err=%v", ok, err)
	}
	if got.AnonymousID != dev.AnonymousID || !got.CreatedAt.Equal(dev.CreatedAt) {
		t.Fatalf("mismatch after load: %+v", got)
	}
}
