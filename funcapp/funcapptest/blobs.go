package funcapptest

import (
	"sort"
	"sync"
)

// BlobStore is an in-memory blob container keyed by blob path.
type BlobStore struct {
	blobs map[string][]byte
	lock  sync.Mutex
}

func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string][]byte)}
}

// Get returns a copy of a blob's content.
func (s *BlobStore) Get(path string) ([]byte, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	data, ok := s.blobs[path]
	if !ok {
		return nil, false
	}
	return append([]byte{}, data...), true
}

// Put stores a copy of content.
func (s *BlobStore) Put(path string, content []byte) {
	s.lock.Lock()
	s.blobs[path] = append([]byte{}, content...)
	s.lock.Unlock()
}

func (s *BlobStore) Delete(path string) {
	s.lock.Lock()
	delete(s.blobs, path)
	s.lock.Unlock()
}

// Paths returns the paths of all blobs, sorted.
func (s *BlobStore) Paths() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	ret := make([]string, 0, len(s.blobs))
	for p := range s.blobs {
		ret = append(ret, p)
	}
	sort.Strings(ret)
	return ret
}
