package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

var imagesBucket = []byte("images")

// BoltStore implements Store on a bbolt file. Keys are absolute paths, values
// the encoded label list.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens (creating if needed) the bbolt catalog at path.
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create catalog directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(imagesBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize catalog bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) EnsureTracked(ctx context.Context, paths []string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(paths) == 0 {
		return 0, nil
	}

	added := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(imagesBucket)
		n := 0
		for _, p := range paths {
			if b.Get([]byte(p)) != nil {
				continue
			}
			if err := b.Put([]byte(p), []byte{}); err != nil {
				return fmt.Errorf("insert %s: %w", p, err)
			}
			n++
		}
		added = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *BoltStore) Labels(ctx context.Context, path string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := []string{}
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(imagesBucket).Get([]byte(path)); v != nil {
			labels = decodeLabels(string(v))
		}
		return nil
	})
	return labels, err
}

func (s *BoltStore) SetLabels(ctx context.Context, path string, labels []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	labels, err := NormalizeLabels(labels)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(imagesBucket)
		if b.Get([]byte(path)) == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return b.Put([]byte(path), []byte(encodeLabels(labels)))
	})
}

func (s *BoltStore) AddLabel(ctx context.Context, path, label string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	label, err := NormalizeLabel(label)
	if err != nil {
		return false, err
	}

	added := false
	err = s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(imagesBucket)
		v := b.Get([]byte(path))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		labels := decodeLabels(string(v))
		if HasLabel(labels, label) {
			return nil
		}
		labels = append(labels, label)
		if err := b.Put([]byte(path), []byte(encodeLabels(labels))); err != nil {
			return fmt.Errorf("add label: %w", err)
		}
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

func (s *BoltStore) RemoveLabel(ctx context.Context, path, label string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	removed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(imagesBucket)
		v := b.Get([]byte(path))
		if v == nil {
			return nil
		}
		labels := decodeLabels(string(v))
		if !HasLabel(labels, label) {
			return nil
		}
		if err := b.Put([]byte(path), []byte(encodeLabels(withoutLabel(labels, label)))); err != nil {
			return fmt.Errorf("remove label: %w", err)
		}
		removed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

func (s *BoltStore) Rekey(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if oldPath == newPath {
		return nil
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(imagesBucket)
		if b.Get([]byte(newPath)) != nil {
			return fmt.Errorf("%w: %s", ErrConflict, newPath)
		}
		v := b.Get([]byte(oldPath))
		if v == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, oldPath)
		}
		// v is only valid for the life of the transaction and Delete may
		// invalidate it.
		val := append([]byte{}, v...)
		if err := b.Delete([]byte(oldPath)); err != nil {
			return fmt.Errorf("rekey: %w", err)
		}
		if err := b.Put([]byte(newPath), val); err != nil {
			return fmt.Errorf("rekey: %w", err)
		}
		return nil
	})
}

func (s *BoltStore) Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(imagesBucket).Delete([]byte(path))
	})
}

func (s *BoltStore) QueryUntagged(ctx context.Context, dir string) ([]string, error) {
	var paths []string
	err := s.each(ctx, dir, func(path string, labels []string) {
		if len(labels) == 0 {
			paths = append(paths, path)
		}
	})
	return paths, err
}

func (s *BoltStore) QueryTagged(ctx context.Context, dir string) ([]Record, error) {
	var records []Record
	err := s.each(ctx, dir, func(path string, labels []string) {
		if len(labels) > 0 {
			records = append(records, Record{Path: path, Labels: labels})
		}
	})
	return records, err
}

func (s *BoltStore) Stats(ctx context.Context, dir string) (Stats, error) {
	st := Stats{ByLabel: make(map[string]int)}
	err := s.each(ctx, dir, func(_ string, labels []string) {
		st.add(labels)
	})
	if err != nil {
		return Stats{}, err
	}
	return st, nil
}

// each visits rows in key order, restricted to dir when it is non-empty.
func (s *BoltStore) each(ctx context.Context, dir string, fn func(path string, labels []string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(imagesBucket).ForEach(func(k, v []byte) error {
			path := string(k)
			if dir != "" && dirOf(path) != dir {
				return nil
			}
			fn(path, decodeLabels(string(v)))
			return nil
		})
	})
}
