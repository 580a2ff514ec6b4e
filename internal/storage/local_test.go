package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestLocalStore_WriteAndStats(t *testing.T) {
	base := t.TempDir()
	store, err := NewLocalStore(base)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cik := "0000320193"

	count, size, err := store.DirStats(cik)
	if err != nil {
		t.Fatalf("stats on empty store failed: %v", err)
	}
	if count != 0 || size != 0 {
		t.Errorf("expected empty stats, got count=%d size=%d", count, size)
	}

	path, err := store.Write(context.Background(), cik, "2023_10-K_TEST_main.htm", []byte("<html>report</html>"))
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if filepath.Dir(path) != store.CompanyDir(cik) {
		t.Errorf("document landed outside the company directory: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read staged file: %v", err)
	}
	if string(data) != "<html>report</html>" {
		t.Errorf("unexpected file content: %q", data)
	}

	if _, err := store.Write(context.Background(), cik, "2023_10-K_TEST_financial_report.xlsx", []byte("xx")); err != nil {
		t.Fatalf("second write failed: %v", err)
	}

	count, size, err = store.DirStats(cik)
	if err != nil {
		t.Fatalf("stats failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 files, got %d", count)
	}
	if size != int64(len("<html>report</html>")+2) {
		t.Errorf("unexpected total size: %d", size)
	}
}

func TestLocalStore_WriteHonorsCancellation(t *testing.T) {
	store, err := NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Write(ctx, "0000000001", "doc.htm", []byte("x")); err == nil {
		t.Error("write with cancelled context must fail")
	}
}
