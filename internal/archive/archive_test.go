// Copyright (c) 2026 Yuvraj Aryan
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

// TestFilesystemSink_Write verifies nested keys materialise as directories.
func TestFilesystemSink_Write(t *testing.T) {
	root := t.TempDir()
	sink := NewFilesystemSink(root)

	payload := []byte(`{"feedbackId":"fb-1"}`)
	if err := sink.Write(context.Background(), "exports/2025-06/fb-1.json", payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "exports", "2025-06", "fb-1.json"))
	if err != nil {
		t.Fatalf("archived file unreadable: %v", err)
	}
	if string(got) != string(payload) {
		t.Errorf("payload = %q, want %q", got, payload)
	}
}

// TestFilesystemSink_Overwrite verifies rewrites replace prior content.
func TestFilesystemSink_Overwrite(t *testing.T) {
	root := t.TempDir()
	sink := NewFilesystemSink(root)

	if err := sink.Write(context.Background(), "exports/a.json", []byte("one")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := sink.Write(context.Background(), "exports/a.json", []byte("two")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := os.ReadFile(filepath.Join(root, "exports", "a.json"))
	if err != nil {
		t.Fatalf("archived file unreadable: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("payload = %q, want %q", got, "two")
	}
}
