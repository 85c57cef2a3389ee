package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"docchat/internal/domain"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketDocChunks = []byte("doc_chunks")
	bucketHashes    = []byte("hashes")
	bucketMeta      = []byte("meta")
)

// BoltStore persists documents and chunks in BoltDB. Deleting a
// document removes its chunks and hash entry so the corpus never holds
// an orphaned record.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketDocChunks, bucketHashes, bucketMeta}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// DB exposes the underlying handle so the vector store can share one
// database file.
func (s *BoltStore) DB() *bbolt.DB {
	return s.db
}

type docMeta struct {
	Name        string `json:"name"`
	MediaType   string `json:"media_type"`
	ByteSize    int64  `json:"byte_size"`
	ContentHash string `json:"content_hash"`
	CreatedAt   int64  `json:"created_at"`
}

type chunkMeta struct {
	DocID   string `json:"doc_id"`
	Seq     int    `json:"seq"`
	Content string `json:"content"`
}

func (s *BoltStore) PutDoc(doc domain.Document) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := docMeta{
			Name:        doc.Name,
			MediaType:   doc.MediaType,
			ByteSize:    doc.ByteSize,
			ContentHash: doc.ContentHash,
			CreatedAt:   doc.CreatedAt.Unix(),
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketDocs).Put([]byte(doc.ID), data); err != nil {
			return err
		}
		if doc.ContentHash != "" {
			return tx.Bucket(bucketHashes).Put([]byte(doc.ContentHash), []byte(doc.ID))
		}
		return nil
	})
}

func (s *BoltStore) GetDoc(id string) (domain.Document, error) {
	var doc domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("document not found: %s", id)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = docFromMeta(id, meta)
		return nil
	})
	return doc, err
}

func (s *BoltStore) GetDocByHash(hash string) (domain.Document, bool, error) {
	var doc domain.Document
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		id := tx.Bucket(bucketHashes).Get([]byte(hash))
		if id == nil {
			return nil
		}
		data := tx.Bucket(bucketDocs).Get(id)
		if data == nil {
			return nil
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = docFromMeta(string(id), meta)
		found = true
		return nil
	})
	return doc, found, err
}

func (s *BoltStore) DeleteDoc(id string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(id))
		if data != nil {
			var meta docMeta
			if err := json.Unmarshal(data, &meta); err == nil && meta.ContentHash != "" {
				if err := tx.Bucket(bucketHashes).Delete([]byte(meta.ContentHash)); err != nil {
					return err
				}
			}
		}
		return tx.Bucket(bucketDocs).Delete([]byte(id))
	})
}

func (s *BoltStore) ListDocs() ([]domain.Document, error) {
	var docs []domain.Document
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDocs).ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, docFromMeta(string(k), meta))
			return nil
		})
	})
	return docs, err
}

func (s *BoltStore) PutChunk(chunk domain.Chunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := chunkMeta{
			DocID:   chunk.DocID,
			Seq:     chunk.Seq,
			Content: chunk.Content,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketChunks).Put([]byte(chunk.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketDocChunks).Put(docChunkKey(chunk.DocID, chunk.Seq), []byte(chunk.ID))
	})
}

// GetChunksByDoc returns the document's chunks in Seq order, relying on
// the zero-padded doc_chunks key layout.
func (s *BoltStore) GetChunksByDoc(docID string) ([]domain.Chunk, error) {
	var chunks []domain.Chunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		c := tx.Bucket(bucketDocChunks).Cursor()
		prefix := []byte(docID + "/")

		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			data := chunkBucket.Get(v)
			if data == nil {
				continue
			}
			var meta chunkMeta
			if err := json.Unmarshal(data, &meta); err != nil {
				return err
			}
			chunks = append(chunks, domain.Chunk{
				ID:      string(v),
				DocID:   meta.DocID,
				Seq:     meta.Seq,
				Content: meta.Content,
			})
		}
		return nil
	})
	return chunks, err
}

func (s *BoltStore) DeleteChunksByDoc(docID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		docChunkBucket := tx.Bucket(bucketDocChunks)
		c := docChunkBucket.Cursor()
		prefix := []byte(docID + "/")

		var keys [][]byte
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			if err := chunkBucket.Delete(v); err != nil {
				return err
			}
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := docChunkBucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *BoltStore) GetName(docID string) (string, error) {
	doc, err := s.GetDoc(docID)
	if err != nil {
		return "", err
	}
	return doc.Name, nil
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func docFromMeta(id string, meta docMeta) domain.Document {
	return domain.Document{
		ID:          id,
		Name:        meta.Name,
		MediaType:   meta.MediaType,
		ByteSize:    meta.ByteSize,
		ContentHash: meta.ContentHash,
		CreatedAt:   time.Unix(meta.CreatedAt, 0),
	}
}

func docChunkKey(docID string, seq int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", docID, seq))
}
