/*
Copyright (C) 2026  WanXCodec Contributors

	This program is free software: you can redistribute it and/or modify
	it under the terms of the GNU General Public License as published by
	the Free Software Foundation, either version 3 of the License, or
	(at your option) any later version.

	This program is distributed in the hope that it will be useful,
	but WITHOUT ANY WARRANTY; without even the implied warranty of
	MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
	GNU General Public License for more details.

	You should have received a copy of the GNU General Public License
	along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

package coss

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// StripeStore is the backing store a Cache writes its stripes to. The
// default is a single local file (FileStripeStore); S3StripeStore and
// RADOSStripeStore (built with the s3 and ceph tags) store one object
// per stripe on object storage. Open always uses FileStripeStore.
type StripeStore interface {
	// ReadStripe returns the on-disk bytes for stripe number, or
	// ok=false if the store holds nothing for it. FileStripeStore
	// pre-sizes its file, so a never-written stripe inside it comes
	// back as all zeros with ok=true.
	ReadStripe(number uint64) (data []byte, ok bool, err error)
	WriteStripe(number uint64, data []byte) error
	Close() error
}

// FileStripeStore backs a cache with a single cyclic file, the stripe at
// index n living at byte offset n*StripeBytes().
type FileStripeStore struct {
	f         *os.File
	path      string
	stripeLen int64
	capacity  uint64
}

// OpenFileStripeStore opens (creating if necessary) path as a cyclic
// stripe file sized to hold capacity stripes of stripeLen bytes each.
// An existing, larger file is left alone; a smaller or missing one is
// grown to the target size so later ReadAt/WriteAt calls never need
// their own bounds-growing logic.
func OpenFileStripeStore(path string, capacity uint64, stripeLen int64) (*FileStripeStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("coss: creating cache directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("coss: opening %s: %w", path, err)
	}
	want := int64(capacity) * stripeLen
	if info, err := f.Stat(); err == nil && info.Size() < want {
		if err := f.Truncate(want); err != nil {
			f.Close()
			return nil, fmt.Errorf("coss: sizing %s: %w", path, err)
		}
	}
	return &FileStripeStore{f: f, path: path, stripeLen: stripeLen, capacity: capacity}, nil
}

func (s *FileStripeStore) offset(number uint64) int64 { return int64(number) * s.stripeLen }

func (s *FileStripeStore) ReadStripe(number uint64) ([]byte, bool, error) {
	buf := make([]byte, s.stripeLen)
	n, err := s.f.ReadAt(buf, s.offset(number))
	if n == 0 {
		return nil, false, nil
	}
	if err != nil && n < len(buf) {
		// Short read at the tail of a freshly grown file reads as
		// zeros for the untouched remainder, same as a stripe that
		// was reset but never written.
		return buf, true, nil
	}
	return buf, true, nil
}

func (s *FileStripeStore) WriteStripe(number uint64, data []byte) error {
	_, err := s.f.WriteAt(data, s.offset(number))
	return err
}

func (s *FileStripeStore) Close() error { return s.f.Close() }

// Watch reports filesystem events on the backing file (rename, removal,
// truncation by an external tool), so a long-running daemon can notice
// its cache file was tampered with out from under it instead of quietly
// serving corrupt stripes. The returned watcher must be closed by the
// caller; ordinary reads and writes through ReadStripe/WriteStripe never
// need it.
func (s *FileStripeStore) Watch() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(s.path); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
