package ingest

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"sync"

	"metaQuery/internal/metaquery"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrBatchNotFound = errors.New("dataset not found")

// Cache memoizes parsed files by content for the life of the process.
// Nothing is ever evicted. Tables handed out are copies.
type Cache struct {
	mu         sync.Mutex
	provenance string
	files      map[string]*metaquery.Table
	batches    map[string][]string
	hits       int
	misses     int
}

func NewCache(provenance string) *Cache {
	c := new(Cache)
	c.provenance = provenance
	c.files = make(map[string]*metaquery.Table)
	c.batches = make(map[string][]string)
	return c
}

// FileKey identifies a file by its name and bytes.
func FileKey(f File) string {
	h := sha256.New()
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], uint64(len(f.Name)))
	h.Write(n[:])
	h.Write([]byte(f.Name))
	h.Write(f.Data)
	return hex.EncodeToString(h.Sum(nil))
}

// BatchKey identifies an ordered list of files.
func BatchKey(fileKeys []string) string {
	h := sha256.New()
	for _, k := range fileKeys {
		h.Write([]byte(k))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Load parses the files, reusing earlier parses of identical files, and
// remembers the batch under the returned key. Get hands out the table.
func (c *Cache) Load(files []File) (string, error) {
	if len(files) == 0 {
		return "", ErrNoInput
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, len(files))
	for i, f := range files {
		key := FileKey(f)
		keys[i] = key
		if _, ok := c.files[key]; ok {
			c.hits++
			continue
		}
		t, err := LoadFile(f, c.provenance)
		if err != nil {
			return "", err
		}
		c.misses++
		c.files[key] = t
	}
	batch := BatchKey(keys)
	c.batches[batch] = keys
	logrus.WithFields(logrus.Fields{
		"batch":  batch,
		"files":  len(files),
		"hits":   c.hits,
		"misses": c.misses,
	}).Debug("Batch cached")
	return batch, nil
}

// Get rebuilds the table of a batch loaded before.
func (c *Cache) Get(batch string) (*metaquery.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys, ok := c.batches[batch]
	if !ok {
		return nil, errors.Wrapf(ErrBatchNotFound, "batch %s", batch)
	}
	return c.concat(keys), nil
}

func (c *Cache) concat(keys []string) *metaquery.Table {
	tables := make([]*metaquery.Table, len(keys))
	for i, k := range keys {
		tables[i] = c.files[k]
	}
	// Concat copies every row, the cached tables stay untouched
	return metaquery.Concat(c.provenance, tables...)
}

func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
