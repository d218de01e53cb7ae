// SPDX-License-Identifier: MIT

package allocation

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// chunk is a run of consecutive snapshots in one calendar month.
type chunk struct {
	month  string // "_t_YYYYMM"
	lo, hi int    // snapshot positions [lo, hi)
}

func (c chunk) prefix() []byte { return []byte(c.month + "/") }

func (c chunk) key(i int) []byte { return []byte(fmt.Sprintf("%s/%08d", c.month, i)) }

func monthKey(t time.Time) string { return t.Format("_t_200601") }

// monthlyChunks splits snapshots wherever the calendar month changes.
func monthlyChunks(snapshots []time.Time) []chunk {
	var out []chunk
	for i, sn := range snapshots {
		m := monthKey(sn)
		if len(out) == 0 || out[len(out)-1].month != m {
			out = append(out, chunk{month: m, lo: i})
		}
		out[len(out)-1].hi = i + 1
	}

	return out
}

// stage is one allocation call's private on-disk store.
type stage struct {
	dir string
	db  *badger.DB
}

// openStage creates a uniquely named badger store below root (the system
// temporary directory when empty).
func openStage(root string) (*stage, error) {
	if root == "" {
		root = os.TempDir()
	}
	dir := filepath.Join(root, "gridflow-stage-"+uuid.NewString())
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, stagingErrorf("open", err)
	}

	return &stage{dir: dir, db: db}, nil
}

// release closes the store and removes its directory.
func (s *stage) release() error {
	var errs []error
	if err := s.db.Close(); err != nil {
		errs = append(errs, stagingErrorf("close", err))
	}
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, stagingErrorf("remove", err))
	}

	return errors.Join(errs...)
}

func (s *stage) write(c chunk, parts []*Result) error {
	wb := s.db.NewWriteBatch()
	for j, r := range parts {
		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(r); err != nil {
			wb.Cancel()
			return stagingErrorf("encode", err)
		}
		if err := wb.Set(c.key(c.lo+j), buf.Bytes()); err != nil {
			wb.Cancel()
			return stagingErrorf("write", err)
		}
	}
	if err := wb.Flush(); err != nil {
		return stagingErrorf("flush", err)
	}

	return nil
}

// read returns the chunk's results in snapshot order.
func (s *stage) read(c chunk) ([]*Result, error) {
	parts := make([]*Result, 0, c.hi-c.lo)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := c.prefix()
		for it.Seek(c.key(c.lo)); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			i, err := strconv.Atoi(strings.TrimPrefix(string(item.Key()), string(prefix)))
			if err != nil {
				return err
			}
			if i >= c.hi {
				break
			}
			err = item.Value(func(val []byte) error {
				r := new(Result)
				if err := gob.NewDecoder(bytes.NewReader(val)).Decode(r); err != nil {
					return err
				}
				parts = append(parts, r)

				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, stagingErrorf("read "+c.month, err)
	}

	return parts, nil
}

// staged allocates chunk by chunk, parking each month's results on disk,
// and reloads them once every chunk succeeded. The store is removed on
// every return path.
func (e *Engine) staged(ctx context.Context, snapshots []time.Time, m Method) (res *Result, err error) {
	st, err := openStage(e.opts.stageDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rErr := st.release(); rErr != nil {
			err = errors.Join(err, rErr)
			res = nil
		}
	}()

	chunks := monthlyChunks(snapshots)
	for _, c := range chunks {
		parts, err := e.sequential(ctx, snapshots[c.lo:c.hi], m, true)
		if err != nil {
			return nil, err
		}
		if err := st.write(c, parts); err != nil {
			return nil, err
		}
		e.opts.logger.Debug("staged chunk", "key", c.month, "snapshots", c.hi-c.lo)
	}

	all := make([]*Result, 0, len(snapshots))
	for _, c := range chunks {
		parts, err := st.read(c)
		if err != nil {
			return nil, err
		}
		e.opts.logger.Debug("loaded chunk", "key", c.month, "snapshots", len(parts))
		all = append(all, parts...)
	}

	return concat(all), nil
}
