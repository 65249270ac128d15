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

// Package archive provides a write-only object sink for enriched feedback
// records. The pipeline writes one object per analysed record, keyed by
// year-month and id, for downstream export tooling.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink is a write-only object store. Write failures are reported to the
// caller, which logs and swallows them; archiving never affects the
// analysis outcome.
type Sink interface {
	Write(ctx context.Context, key string, payload []byte) error
}

// FilesystemSink stores objects as files under a root directory, mapping
// slash-separated keys to nested paths.
type FilesystemSink struct {
	root string
}

// NewFilesystemSink creates a sink rooted at the given directory.
func NewFilesystemSink(root string) *FilesystemSink {
	return &FilesystemSink{root: root}
}

// Write stores the payload at the path derived from the key, creating
// intermediate directories as needed.
func (s *FilesystemSink) Write(_ context.Context, key string, payload []byte) error {
	path := filepath.Join(s.root, filepath.FromSlash(key))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write archive object %s: %w", key, err)
	}
	return nil
}
