package storage

import (
	"github.com/pingcap/errors"
)

// Get reads a single record of kind cf. It returns (nil, nil) when the key does not exist.
func Get(s Storage, cf string, key []byte) ([]byte, error) {
	reader, err := s.Reader()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer reader.Close()
	return reader.GetCF(cf, key)
}

// PutValue upserts a single record of kind cf.
func PutValue(s Storage, cf string, key, value []byte) error {
	return s.Write([]Modify{{Data: Put{Key: key, Value: value, Cf: cf}}})
}

// Count returns the number of records of kind cf. Stores implementing Counter count natively;
// others are scanned.
func Count(s Storage, cf string) (int, error) {
	if c, ok := s.(Counter); ok {
		n, err := c.Count(cf)
		return n, errors.Trace(err)
	}
	reader, err := s.Reader()
	if err != nil {
		return 0, errors.Trace(err)
	}
	defer reader.Close()
	iter := reader.IterCF(cf)
	if iter == nil {
		return 0, errors.Errorf("storage: bad CF %s", cf)
	}
	defer iter.Close()
	n := 0
	for iter.Seek(nil); iter.Valid(); iter.Next() {
		n++
	}
	return n, nil
}

// Scan returns the values of every record of kind cf accepted by pred, in key order. A nil pred
// accepts everything.
func Scan(s Storage, cf string, pred func(key, value []byte) bool) ([][]byte, error) {
	reader, err := s.Reader()
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer reader.Close()
	return ScanReader(reader, cf, pred)
}

// ScanReader is Scan over an already open reader.
func ScanReader(reader StorageReader, cf string, pred func(key, value []byte) bool) ([][]byte, error) {
	iter := reader.IterCF(cf)
	if iter == nil {
		return nil, errors.Errorf("storage: bad CF %s", cf)
	}
	defer iter.Close()

	var result [][]byte
	for iter.Seek(nil); iter.Valid(); iter.Next() {
		item := iter.Item()
		value, err := item.ValueCopy(nil)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if pred == nil || pred(item.Key(), value) {
			result = append(result, value)
		}
	}
	return result, nil
}
