package keys_test

import (
	"testing"

	"github.com/rs/zerolog"

	"burna/internal/domain"
	"burna/internal/services/keys"
	"burna/internal/store"
)

func makeService(t *testing.T) *keys.Service {
	t.Helper()
	return keys.New(store.NewKeyFileStore(t.TempDir(), ""), zerolog.Nop())
}

func TestKeys_CreateStoreLoadErase(t *testing.T) {
	svc := makeService(t)

	key, err := svc.CreateKey()
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, ok, err := svc.LoadKey("s"); err != nil || ok {
		t.Fatalf("load before store: ok=%v err=%v", ok, err)
	}
	if err := svc.StoreKey("s", key); err != nil {
		t.Fatalf("store: %v", err)
	}
	got, ok, err := svc.LoadKey("s")
	if err != nil || !ok || got != key {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if err := svc.EraseKey("s"); err != nil {
		t.Fatalf("erase: %v", err)
	}
	if err := svc.EraseKey("s"); err != nil {
		t.Fatalf("erase twice: %v", err)
	}
	if _, ok, _ := svc.LoadKey("s"); ok {
		t.Fatal("key present after erase")
	}
}

func TestKeys_StoreRejectsZeroKey(t *testing.T) {
	if err := makeService(t).StoreKey("s", domain.SessionKey{}); err == nil {
		t.Fatal("expected error storing a zero key")
	}
}
