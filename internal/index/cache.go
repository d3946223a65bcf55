// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"

	bolt "go.etcd.io/bbolt"
)

// encodeCache memoizes passage vectors across index rebuilds. Keys hash the
// checkpoint identity together with the passage content, so a new checkpoint
// never reuses stale vectors.
type encodeCache struct {
	db *bolt.DB
}

var cacheBucket = []byte("vectors")

func openCache(path string) (*encodeCache, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("opening encode cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(cacheBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing encode cache: %w", err)
	}
	return &encodeCache{db: db}, nil
}

func (c *encodeCache) close() error { return c.db.Close() }

// cacheKey hashes the encoder fingerprint and passage content.
func cacheKey(fingerprint, id, title, text string) []byte {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	h.Write([]byte(id))
	h.Write([]byte{0})
	h.Write([]byte(title))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return h.Sum(nil)
}

// get returns the cached vector for key. The vector length comes from the
// stored blob, so lookups work for encoders that only learn their dimension
// from the first response.
func (c *encodeCache) get(key []byte) ([]float32, bool) {
	var vec []float32
	c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(cacheBucket).Get(key)
		if len(data) == 0 || len(data)%4 != 0 {
			return nil
		}
		vec = make([]float32, len(data)/4)
		for i := range vec {
			vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
		}
		return nil
	})
	return vec, vec != nil
}

func (c *encodeCache) put(key []byte, vec []float32) error {
	data := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(v))
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(cacheBucket).Put(key, data)
	})
}
