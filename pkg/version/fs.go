// Copyright 2025 walteh LLC
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

package version

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gitlab.com/tozd/go/errors"
)

// Helper functions

func fileExists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Errorf("checking file existence: %w", err)
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source file: %w", err)
	}
	defer source.Close()

	info, err := source.Stat()
	if err != nil {
		return errors.Errorf("reading source file info: %w", err)
	}

	destination, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination file: %w", err)
	}

	if _, err := io.Copy(destination, source); err != nil {
		destination.Close()
		return errors.Errorf("copying file: %w", err)
	}

	if err := destination.Close(); err != nil {
		return errors.Errorf("closing destination file: %w", err)
	}

	return nil
}

// copyFileAtomic copies through a temp file in dst's directory and renames it
// over dst, so dst is never observed half written.
func copyFileAtomic(src, dst string) error {
	tempPath := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+"."+uuid.NewString()[:8]+".tmp")

	if err := copyFile(src, tempPath); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("writing temp file: %w", err)
	}

	if err := os.Rename(tempPath, dst); err != nil {
		os.Remove(tempPath)
		return errors.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// moveFile renames src to dst, falling back to copy and remove across devices.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := copyFile(src, dst); err != nil {
		os.Remove(dst)
		return errors.Errorf("moving file: %w", err)
	}

	if err := os.Remove(src); err != nil {
		return errors.Errorf("removing moved source: %w", err)
	}

	return nil
}

// uniquePath returns path, or a uuid-suffixed sibling when path is taken.
func uniquePath(path string) (string, error) {
	exists, err := fileExists(path)
	if err != nil {
		return "", err
	}
	if !exists {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	return stem + "_" + uuid.NewString()[:8] + ext, nil
}
