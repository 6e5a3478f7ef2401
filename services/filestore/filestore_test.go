package filestore

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeName(t *testing.T) {
	tests := map[string]string{
		"report.pdf":          "report.pdf",
		"../../etc/passwd":    "passwd",
		`C:\Users\me\a b.txt`: "a_b.txt",
		"咨询记录.xlsx":           "咨询记录.xlsx",
		"...":                 "file",
		"":                    "file",
	}
	for in, want := range tests {
		if got := SanitizeName(in); got != want {
			t.Errorf("SanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	key := GenerateKey("/templates/", "Intake Form.PDF")
	if !strings.HasPrefix(key, "templates/") {
		t.Errorf("key %q should start with templates/", key)
	}
	if !strings.HasSuffix(key, "_Intake_Form.pdf") {
		t.Errorf("key %q should end with the sanitized name", key)
	}
	if GenerateKey("x", "a.txt") == GenerateKey("x", "a.txt") {
		t.Error("keys should be unique")
	}
}

func TestGenerateKeyMultibyteName(t *testing.T) {
	// 32 CJK characters, 96 bytes
	name := strings.Repeat("心理咨询", 8) + ".pdf"
	key := GenerateKey("templates", name)

	if !utf8.ValidString(key) {
		t.Fatalf("key %q is not valid UTF-8", key)
	}
	if !strings.HasSuffix(key, "_"+strings.Repeat("心理咨询", 8)+".pdf") {
		t.Errorf("key %q should keep the whole short name", key)
	}

	long := GenerateKey("templates", strings.Repeat("记录", 50)+".xlsx")
	if !utf8.ValidString(long) {
		t.Fatalf("key %q is not valid UTF-8", long)
	}
	base := long[strings.LastIndex(long, "_")+1:]
	if got := utf8.RuneCountInString(strings.TrimSuffix(base, ".xlsx")); got != maxBaseRunes {
		t.Errorf("base has %d runes, want %d", got, maxBaseRunes)
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "/static/")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}

	n, err := store.Put(ctx, "a/b/hello.txt", strings.NewReader("hello"), "text/plain")
	if err != nil || n != 5 {
		t.Fatalf("Put = %d, %v", n, err)
	}

	r, err := store.Open(ctx, "a/b/hello.txt")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}

	if got := store.URL("a/b/hello.txt"); got != "/static/a/b/hello.txt" {
		t.Errorf("URL = %q", got)
	}

	// keys cannot climb out of the root
	if _, err := store.Put(ctx, "../../escape.txt", strings.NewReader("x"), ""); err != nil {
		t.Fatalf("Put with dot-dot key failed: %v", err)
	}
	if _, err := store.Open(ctx, "escape.txt"); err != nil {
		t.Errorf("dot-dot key should resolve inside the root: %v", err)
	}

	if err := store.Delete(ctx, "a/b/hello.txt"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Open(ctx, "a/b/hello.txt"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Open after delete: got %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, "a/b/hello.txt"); err != nil {
		t.Errorf("second Delete should be a no-op: %v", err)
	}
}

func TestWriteZip(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewLocalStore failed: %v", err)
	}
	store.Put(ctx, "k1", strings.NewReader("one"), "")
	store.Put(ctx, "k2", strings.NewReader("two"), "")
	store.Put(ctx, "k3", strings.NewReader("three"), "")

	var buf bytes.Buffer
	err = WriteZip(ctx, store, &buf, []BundleEntry{
		{Name: "form.pdf", Key: "k1"},
		{Name: "form.pdf", Key: "k2"},
		{Name: "Form.pdf", Key: "k3"},
	})
	if err != nil {
		t.Fatalf("WriteZip failed: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("invalid zip: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	want := []string{"Form(2).pdf", "form(1).pdf", "form.pdf"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("zip names = %v, want %v", names, want)
	}

	err = WriteZip(ctx, store, io.Discard, []BundleEntry{{Name: "missing.pdf", Key: "nope"}})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("missing object: got %v, want ErrNotFound", err)
	}
}

func TestGetContentType(t *testing.T) {
	if got := GetContentType("a.XLSX"); got != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Errorf("xlsx content type = %q", got)
	}
	if got := GetContentType("a.bin"); got != "application/octet-stream" {
		t.Errorf("unknown content type = %q", got)
	}
}
