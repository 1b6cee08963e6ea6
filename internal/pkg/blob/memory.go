package blob

import (
	"context"
	"sync"
)

// MemoryStore keeps objects in process memory. All operations are atomic.
type MemoryStore struct {
	lock sync.Mutex
	data map[string]string
}

//NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

//Exists checks the key
func (s *MemoryStore) Exists(ctx context.Context, key string) (bool, error) {
	if err := ValidateKey(key); err != nil {
		return false, err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	_, ok := s.data[key]
	return ok, nil
}

//ReadText returns the object
func (s *MemoryStore) ReadText(ctx context.Context, key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	res, ok := s.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return res, nil
}

//WriteText writes or overwrites the object
func (s *MemoryStore) WriteText(ctx context.Context, key string, text string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.data[key] = text
	return nil
}

//CreateIfAbsent writes the object if there is none
func (s *MemoryStore) CreateIfAbsent(ctx context.Context, key string, text string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.data[key]; ok {
		return ErrAlreadyExists
	}
	s.data[key] = text
	return nil
}

//CompareAndSwap replaces the object if it was not changed
func (s *MemoryStore) CompareAndSwap(ctx context.Context, key string, old, new string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if v, ok := s.data[key]; !ok || v != old {
		return ErrConflict
	}
	s.data[key] = new
	return nil
}

//Delete removes the object
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	delete(s.data, key)
	return nil
}
