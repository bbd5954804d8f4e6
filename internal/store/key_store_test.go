package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"burna/internal/crypto"
	"burna/internal/domain"
	"burna/internal/store"
)

func makeKey(t *testing.T) domain.SessionKey {
	t.Helper()
	key, err := crypto.NewSessionKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return key
}

func TestKeyStore_SaveLoadDelete(t *testing.T) {
	home := t.TempDir()
	var ks domain.KeyStore = store.NewKeyFileStore(home, "")

	if _, ok, err := ks.LoadKey("s1"); err != nil || ok {
		t.Fatalf("load on empty store: ok=%v err=%v", ok, err)
	}

	k1 := makeKey(t)
	k2 := makeKey(t)
	if err := ks.SaveKey("s1", k1); err != nil {
		t.Fatalf("save s1: %v", err)
	}
	if err := ks.SaveKey("s2", k2); err != nil {
		t.Fatalf("save s2: %v", err)
	}

	got, ok, err := ks.LoadKey("s1")
	if err != nil || !ok {
		t.Fatalf("load s1: ok=%v err=%v", ok, err)
	}
	if got != k1 {
		t.Fatal("s1 key mismatch")
	}

	if err := ks.DeleteKey("s1"); err != nil {
		t.Fatalf("delete s1: %v", err)
	}
	if err := ks.DeleteKey("s1"); err != nil {
		t.Fatalf("second delete s1: %v", err)
	}
	if _, ok, _ := ks.LoadKey("s1"); ok {
		t.Fatal("s1 still present after delete")
	}
	if got, ok, _ := ks.LoadKey("s2"); !ok || got != k2 {
		t.Fatal("s2 affected by deleting s1")
	}
}

func TestKeyStore_Overwrite(t *testing.T) {
	ks := store.NewKeyFileStore(t.TempDir(), "")
	k1, k2 := makeKey(t), makeKey(t)
	if err := ks.SaveKey("s", k1); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := ks.SaveKey("s", k2); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, _, err := ks.LoadKey("s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != k2 {
		t.Fatal("overwrite did not replace the key")
	}
}

func TestKeyStore_FileMode(t *testing.T) {
	home := t.TempDir()
	ks := store.NewKeyFileStore(home, "")
	if err := ks.SaveKey("s", makeKey(t)); err != nil {
		t.Fatalf("save: %v", err)
	}
	fi, err := os.Stat(filepath.Join(home, "keys.json"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if fi.Mode().Perm() != 0o600 {
		t.Fatalf("mode = %v, want 0600", fi.Mode().Perm())
	}
}

func TestKeyStore_Sealed(t *testing.T) {
	home := t.TempDir()
	ks := store.NewKeyFileStore(home, "correct horse")
	key := makeKey(t)
	if err := ks.SaveKey("s", key); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, "keys.json")); !os.IsNotExist(err) {
		t.Fatalf("plain keyring written alongside sealed one: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(home, "keys.enc"))
	if err != nil {
		t.Fatalf("read sealed keyring: %v", err)
	}
	if strings.Contains(string(raw), crypto.EncodeKey(key)) {
		t.Fatal("sealed keyring contains the key in the clear")
	}

	got, ok, err := store.NewKeyFileStore(home, "correct horse").LoadKey("s")
	if err != nil || !ok || got != key {
		t.Fatalf("reopen: ok=%v err=%v", ok, err)
	}

	_, _, err = store.NewKeyFileStore(home, "battery staple").LoadKey("s")
	if !errors.Is(err, store.ErrWrongPassphrase) {
		t.Fatalf("wrong passphrase err = %v, want ErrWrongPassphrase", err)
	}
}
