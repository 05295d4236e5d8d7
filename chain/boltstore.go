package chain

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

var (
	bucketReceipts       = []byte("receipts")
	bucketReceiptsHeight = []byte("receipts_height")
	bucketDeployments    = []byte("deployments")
)

// BoltStore persists receipts and deployments in a bbolt database.
type BoltStore struct {
	db *bbolt.DB
}

// Compile-time interface check.
var _ Store = (*BoltStore)(nil)

// OpenBoltStore opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
func OpenBoltStore(dbPath string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("chain: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketReceipts, bucketReceiptsHeight, bucketDeployments} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("boltstore: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("chain: create buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BoltStore) Close() error { return s.db.Close() }

// heightKey encodes block height and nonce as a sortable 16-byte key,
// followed by the tx hash so keys stay unique.
func heightKey(block, nonce uint64, hash Hash) []byte {
	k := make([]byte, 16+HashLength)
	binary.BigEndian.PutUint64(k[:8], block)
	binary.BigEndian.PutUint64(k[8:16], nonce)
	copy(k[16:], hash[:])
	return k
}

func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// PutReceipt stores a receipt. Returns ErrDuplicateReceipt if the hash exists.
func (s *BoltStore) PutReceipt(r *Receipt) error {
	if r == nil {
		return fmt.Errorf("%w: receipt", ErrNilParam)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketReceipts)
		if b.Get(r.TxHash[:]) != nil {
			return ErrDuplicateReceipt
		}
		data, err := encodeGob(r)
		if err != nil {
			return fmt.Errorf("encode receipt: %w", err)
		}
		if err := b.Put(r.TxHash[:], data); err != nil {
			return fmt.Errorf("boltstore: put receipt: %w", err)
		}
		if err := tx.Bucket(bucketReceiptsHeight).Put(heightKey(r.Block, r.Nonce, r.TxHash), r.TxHash[:]); err != nil {
			return fmt.Errorf("boltstore: put receipt by height: %w", err)
		}
		return nil
	})
}

// GetReceipt retrieves a receipt by transaction hash.
func (s *BoltStore) GetReceipt(hash Hash) (*Receipt, error) {
	var r Receipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketReceipts).Get(hash[:])
		if data == nil {
			return ErrReceiptNotFound
		}
		if err := decodeGob(data, &r); err != nil {
			return fmt.Errorf("boltstore: decode receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ListReceipts returns all receipts ordered by block and nonce.
func (s *BoltStore) ListReceipts() ([]*Receipt, error) {
	var out []*Receipt
	err := s.db.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket(bucketReceipts)
		c := tx.Bucket(bucketReceiptsHeight).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			data := rb.Get(v)
			if data == nil {
				continue // stale index entry
			}
			var r Receipt
			if err := decodeGob(data, &r); err != nil {
				return fmt.Errorf("boltstore: decode receipt in list: %w", err)
			}
			out = append(out, &r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list receipts: %w", err)
	}
	return out, nil
}

// PutDeployment stores a named deployment, replacing any previous record.
func (s *BoltStore) PutDeployment(d *Deployment) error {
	if d == nil {
		return fmt.Errorf("%w: deployment", ErrNilParam)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := encodeGob(d)
		if err != nil {
			return fmt.Errorf("encode deployment: %w", err)
		}
		if err := tx.Bucket(bucketDeployments).Put([]byte(d.Name), data); err != nil {
			return fmt.Errorf("boltstore: put deployment: %w", err)
		}
		return nil
	})
}

// GetDeployment retrieves a deployment by contract name.
func (s *BoltStore) GetDeployment(name string) (*Deployment, error) {
	var d Deployment
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDeployments).Get([]byte(name))
		if data == nil {
			return fmt.Errorf("%w: %q", ErrDeploymentNotFound, name)
		}
		if err := decodeGob(data, &d); err != nil {
			return fmt.Errorf("boltstore: decode deployment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDeployments returns all deployments ordered by block, then name.
func (s *BoltStore) ListDeployments() ([]*Deployment, error) {
	var out []*Deployment
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketDeployments).ForEach(func(k, v []byte) error {
			var d Deployment
			if err := decodeGob(v, &d); err != nil {
				return fmt.Errorf("boltstore: decode deployment in list: %w", err)
			}
			out = append(out, &d)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("boltstore: list deployments: %w", err)
	}
	sortDeployments(out)
	return out, nil
}
