package hashutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHash_Fixture(t *testing.T) {
	got, err := Hash(strings.NewReader("test hash"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	// 回归基线：该输入的摘要值不随版本漂移
	want := "VKZIO4rKVcnfKjW69x2ZZd39YjRo2B1RIpvV630eHBs="
	if got != want {
		t.Errorf("Hash(\"test hash\") = %q, want %q", got, want)
	}
}

func TestHash_Deterministic(t *testing.T) {
	a, err := Hash(strings.NewReader("page body"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	b, err := Hash(strings.NewReader("page body"))
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if a != b {
		t.Errorf("same input produced different digests: %q vs %q", a, b)
	}
	c, _ := Hash(strings.NewReader("page body "))
	if a == c {
		t.Errorf("different input produced identical digest %q", a)
	}
}

func TestHashFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "page.html")
	if err := os.WriteFile(path, []byte("test hash"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := HashFile(path)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if got != "VKZIO4rKVcnfKjW69x2ZZd39YjRo2B1RIpvV630eHBs=" {
		t.Errorf("HashFile digest mismatch: %q", got)
	}
}

func TestHashFile_Missing(t *testing.T) {
	if _, err := HashFile(filepath.Join(t.TempDir(), "absent.html")); err == nil {
		t.Error("expected error for missing file")
	}
}
