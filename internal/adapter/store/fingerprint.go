package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"
)

var keyFingerprint = []byte("fingerprint")

// IndexSettings are the parameters baked into stored chunks and
// vectors. A corpus built with one set of settings cannot be searched
// with another: a model or dimension change makes every stored vector
// incomparable, and a chunking change invalidates stored chunk bounds.
type IndexSettings struct {
	ChunkSize      int    `json:"chunk_size"`
	ChunkOverlap   int    `json:"chunk_overlap"`
	EmbeddingModel string `json:"embedding_model"`
	Dimension      int    `json:"dimension"`
}

// Fingerprint returns a short stable hash of the settings.
func (s IndexSettings) Fingerprint() string {
	data, _ := json.Marshal(s)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:8])
}

// CheckCompatibility compares the stored fingerprint with the current
// settings. An empty corpus (no fingerprint yet) is compatible with
// anything. The second return value names what changed.
func (s *BoltStore) CheckCompatibility(settings IndexSettings) (bool, string, error) {
	var stored string
	err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(bucketMeta).Get(keyFingerprint); v != nil {
			stored = string(v)
		}
		return nil
	})
	if err != nil {
		return false, "", fmt.Errorf("failed to read corpus fingerprint: %w", err)
	}

	if stored == "" || stored == settings.Fingerprint() {
		return true, "", nil
	}
	return false, "chunking or embedding settings changed since the corpus was built", nil
}

// SetFingerprint records the settings the corpus is built with. Called
// after a successful ingestion.
func (s *BoltStore) SetFingerprint(settings IndexSettings) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketMeta).Put(keyFingerprint, []byte(settings.Fingerprint()))
	})
}

// Clear wipes every document, chunk, hash and vector so the corpus can
// be rebuilt with new settings. The fingerprint is cleared too.
func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketHashes, bucketVectors, bucketMeta}
		for _, name := range buckets {
			b := tx.Bucket(name)
			if b == nil {
				continue
			}
			c := b.Cursor()
			for k, _ := c.First(); k != nil; k, _ = c.Next() {
				if err := c.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
