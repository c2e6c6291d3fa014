package tenantkey

import (
	"bytes"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	c := NewCipher([]byte("master-secret-at-least-32-bytes!!"))
	plaintext := []byte("sk-live-some-provider-api-key")

	ciphertext, err := c.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bytes.Contains(ciphertext, plaintext) {
		t.Fatal("ciphertext must not contain the plaintext")
	}

	decrypted, err := c.Decrypt(ciphertext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("expected %q, got %q", plaintext, decrypted)
	}
}

func TestEncryptProducesDistinctCiphertextsEachCall(t *testing.T) {
	c := NewCipher([]byte("master-secret"))
	a, _ := c.Encrypt([]byte("same input"))
	b, _ := c.Encrypt([]byte("same input"))
	if bytes.Equal(a, b) {
		t.Error("expected distinct ciphertexts due to random salt/nonce")
	}
}

func TestDecryptRejectsTooShortCiphertext(t *testing.T) {
	c := NewCipher([]byte("master-secret"))
	if _, err := c.Decrypt([]byte("short")); err != ErrCiphertextTooShort {
		t.Fatalf("expected ErrCiphertextTooShort, got %v", err)
	}
}

func TestDecryptFailsWithWrongMasterKey(t *testing.T) {
	c1 := NewCipher([]byte("master-key-one"))
	c2 := NewCipher([]byte("master-key-two"))

	ciphertext, _ := c1.Encrypt([]byte("secret"))
	if _, err := c2.Decrypt(ciphertext); err == nil {
		t.Fatal("expected decrypt with wrong master key to fail")
	}
}

func TestClientCacheGetPutAndEviction(t *testing.T) {
	cache := NewClientCache(2)
	cache.Put("tenant-a", "client-a")
	cache.Put("tenant-b", "client-b")

	if v, ok := cache.Get("tenant-a"); !ok || v != "client-a" {
		t.Fatalf("expected cached client-a, got %v %v", v, ok)
	}

	cache.Put("tenant-c", "client-c")
	if _, ok := cache.Get("tenant-a"); ok {
		t.Error("expected tenant-a to be evicted once capacity exceeded")
	}
	if v, ok := cache.Get("tenant-c"); !ok || v != "client-c" {
		t.Fatalf("expected tenant-c present, got %v %v", v, ok)
	}
}
