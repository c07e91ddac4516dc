package index

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	manifestFile   = ".pooldex-meta.db"
	bucketIndexes  = "indexes"
	defaultNameKey = "_default"
)

type manifestEntry struct {
	UUID      string `json:"uuid"`
	Name      string `json:"name"`
	Schema    Schema `json:"schema"`
	CreatedAt int64  `json:"created_at"`
}

func manifestKey(name string) []byte {
	if name == "" {
		return []byte(defaultNameKey)
	}
	return []byte(name)
}

func openManifest(path string) (*bbolt.DB, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketIndexes))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func putManifestEntry(db *bbolt.DB, e manifestEntry) error {
	return db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketIndexes))
		if b == nil {
			return fmt.Errorf("manifest bucket missing")
		}
		buf, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(manifestKey(e.Name), buf)
	})
}

func getManifestEntry(db *bbolt.DB, name string) (manifestEntry, bool, error) {
	var e manifestEntry
	var ok bool
	err := db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketIndexes))
		if b == nil {
			return nil
		}
		raw := b.Get(manifestKey(name))
		if raw == nil {
			return nil
		}
		ok = true
		return json.Unmarshal(raw, &e)
	})
	if err != nil {
		return manifestEntry{}, false, err
	}
	return e, ok, nil
}

func nowUnix() int64 {
	return time.Now().Unix()
}
