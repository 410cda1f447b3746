// MIT License
//
// Copyright (c) 2024 sigstate-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/storage/file.go

// Package storage provides the durable state sinks. Both sinks share
// the same contract: Persist returns only after the blob is on stable
// storage, and a torn write is detectable on the next load. Losing the
// latest state costs unused capacity; resurrecting an old state reuses
// a leaf, so writes here always fail safe, never fast.
package storage

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/minio/highwayhash"
	"github.com/sigstate-core/go/src/core/hbs/types"
)

// State file frame: magic || length(4) || blob || highwayhash64(8).
var fileMagic = []byte("HBS1")

// checksumKey is the fixed HighwayHash key for the file frame. The
// checksum detects torn writes and bit rot, not tampering, so a public
// constant key is fine.
var checksumKey = func() []byte {
	k := make([]byte, 32)
	copy(k, []byte("sigstate-file-frame-checksum-v1"))
	return k
}()

func frameChecksum(blob []byte) uint64 {
	h, err := highwayhash.New64(checksumKey)
	if err != nil {
		// New64 only fails on a bad key length; the key is a constant.
		panic(err)
	}
	h.Write(blob)
	return h.Sum64()
}

// encodeFrame wraps blob in the state file frame.
func encodeFrame(blob []byte) []byte {
	out := make([]byte, len(fileMagic)+4+len(blob)+8)
	n := copy(out, fileMagic)
	binary.BigEndian.PutUint32(out[n:], uint32(len(blob)))
	n += 4
	n += copy(out[n:], blob)
	binary.BigEndian.PutUint64(out[n:], frameChecksum(blob))
	return out
}

// decodeFrame unwraps a state file frame, rejecting anything torn,
// truncated or corrupted.
func decodeFrame(data []byte) ([]byte, error) {
	if len(data) < len(fileMagic)+4+8 {
		return nil, fmt.Errorf("%w: state file truncated (%d bytes)", types.ErrImport, len(data))
	}
	if string(data[:len(fileMagic)]) != string(fileMagic) {
		return nil, fmt.Errorf("%w: bad state file magic", types.ErrImport)
	}
	n := binary.BigEndian.Uint32(data[len(fileMagic):])
	body := data[len(fileMagic)+4:]
	if uint32(len(body)) != n+8 {
		return nil, fmt.Errorf("%w: state file length mismatch", types.ErrImport)
	}
	blob := body[:n]
	want := binary.BigEndian.Uint64(body[n:])
	if frameChecksum(blob) != want {
		return nil, fmt.Errorf("%w: state file checksum mismatch", types.ErrImport)
	}
	return append([]byte(nil), blob...), nil
}

// WriteFileAtomic writes data to path durably: the bytes go to a
// temporary file in the same directory, are fsynced, renamed over path
// and the directory entry is fsynced too. Readers see either the old
// file or the new one, never a mixture.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// FileSink persists state blobs to a single file, guarded by an
// advisory lock so two processes cannot drive the same state file.
type FileSink struct {
	path string
	lock *flock.Flock
}

// NewFileSink opens a sink on path, taking the advisory lock
// path+".lock". Fails immediately if another process holds it.
func NewFileSink(path string) (*FileSink, error) {
	fl := flock.New(path + ".lock")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: locking %s: %v", types.ErrPersistence, path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is locked by another process", types.ErrPersistence, path)
	}
	return &FileSink{path: path, lock: fl}, nil
}

// Path returns the state file path.
func (s *FileSink) Path() string { return s.path }

// Persist durably replaces the state file with blob.
func (s *FileSink) Persist(blob []byte) error {
	if err := WriteFileAtomic(s.path, encodeFrame(blob), 0o600); err != nil {
		return fmt.Errorf("%w: writing %s: %v", types.ErrPersistence, s.path, err)
	}
	return nil
}

// Load reads and validates the current state blob.
func (s *FileSink) Load() ([]byte, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrImport, s.path, err)
	}
	return decodeFrame(data)
}

// Close releases the advisory lock. The state file stays in place.
func (s *FileSink) Close() error {
	return s.lock.Unlock()
}

// LoadStateFile reads and validates a state file without taking the
// lock. For read-only inspection.
func LoadStateFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", types.ErrImport, path, err)
	}
	return decodeFrame(data)
}
