// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestAtomicWriteFile_Basic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	if err := AtomicWriteFile(path, []byte("a = 1\n"), 0o600); err != nil {
		t.Fatalf("AtomicWriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "a = 1\n" {
		t.Errorf("Expected %q, got %q", "a = 1\n", string(data))
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("Expected permissions 0600, got %o", info.Mode().Perm())
	}
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.txt")

	if err := AtomicWriteFile(path, []byte("old"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := AtomicWriteFile(path, []byte("new"), 0o600); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "new" {
		t.Errorf("Expected overwritten content, got %q", string(data))
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("Expected no temp files left behind, found %d entries", len(entries))
	}
}

func TestTruncateRunes(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hello", 0, ""},
		{"hello", 2, "he"},
		{"고급 이성에 가장 빠름", 5, "고급..."},
	}

	for _, tt := range tests {
		if got := TruncateRunes(tt.input, tt.max); got != tt.expected {
			t.Errorf("TruncateRunes(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"gpt-4o", 10, "gpt-4o"},
		{"gpt-4o-mini-long", 8, "gpt-4..."},
		{"한국어", 6, "한국어"},
		{"한국어입니다", 7, "한국..."},
		{"abc", 0, ""},
	}

	for _, tt := range tests {
		if got := TruncateWidth(tt.input, tt.max); got != tt.expected {
			t.Errorf("TruncateWidth(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestPadWidth(t *testing.T) {
	if got := PadWidth("ab", 4); got != "ab  " {
		t.Errorf("PadWidth pad = %q", got)
	}
	if got := StringWidth(PadWidth("한국어입니다", 7)); got != 7 {
		t.Errorf("PadWidth should produce width 7, got %d", got)
	}
}
