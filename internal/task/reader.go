package task

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/xref/blobstore"
	"github.com/hupe1980/xref/internal/resource"
	"github.com/hupe1980/xref/recordio"
)

// Counter names maintained by RecordFileReader.
const (
	CounterRecordsRead    = "records_read"
	CounterKeyBytesRead   = "key_bytes_read"
	CounterValueBytesRead = "value_bytes_read"
)

// ReadError reports a failure to read a record file.
type ReadError struct {
	File   string
	Offset int64
	Err    error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s at offset %d: %v", e.File, e.Offset, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// errLimitReached stops reading once the record limit is hit.
var errLimitReached = errors.New("record limit reached")

// RecordFileReader streams the records of its inputs into a channel.
type RecordFileReader struct {
	Store  blobstore.BlobStore
	Inputs []string
	// Limit caps the number of records read across all inputs. A negative
	// value means unlimited; 0 reads nothing.
	Limit     int64
	Resources *resource.Controller
	Counters  *Counters
}

// NewRecordFileReader returns an unlimited reader over inputs in store.
func NewRecordFileReader(store blobstore.BlobStore, inputs ...string) *RecordFileReader {
	return &RecordFileReader{Store: store, Inputs: inputs, Limit: -1}
}

// Run reads every input in order and sends each record to out. It closes
// out when done, also on error.
func (r *RecordFileReader) Run(ctx context.Context, out *Channel) error {
	defer out.Close()

	counters := r.Counters
	if counters == nil {
		counters = NewCounters()
	}
	rs := readState{
		records:    counters.Get(CounterRecordsRead),
		keyBytes:   counters.Get(CounterKeyBytesRead),
		valueBytes: counters.Get(CounterValueBytesRead),
	}

	for _, name := range r.Inputs {
		err := r.readFile(ctx, name, out, &rs)
		if errors.Is(err, errLimitReached) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

type readState struct {
	records    *Counter
	keyBytes   *Counter
	valueBytes *Counter
}

func (r *RecordFileReader) readFile(ctx context.Context, name string, out *Channel, rs *readState) error {
	if r.Limit >= 0 && rs.records.Value() >= r.Limit {
		return errLimitReached
	}

	rc, _, err := blobstore.NewReader(ctx, r.Store, name)
	if err != nil {
		return &ReadError{File: name, Err: err}
	}
	rr, err := recordio.NewReader(resource.NewRateLimitedReader(ctx, rc, r.Resources))
	if err != nil {
		_ = rc.Close()
		return &ReadError{File: name, Err: err}
	}
	defer rr.Close()

	for {
		if r.Limit >= 0 && rs.records.Value() >= r.Limit {
			return errLimitReached
		}

		pos := rr.Tell()
		rec, err := rr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &ReadError{File: name, Offset: pos, Err: err}
		}

		msg := &Message{Key: rec.Key, Version: rec.Version, Value: rec.Value}
		if msg.release, err = r.Resources.Reserve(ctx, msg.Size()); err != nil {
			return err
		}

		rs.records.Increment()
		rs.keyBytes.Add(int64(len(rec.Key)))
		rs.valueBytes.Add(int64(len(rec.Value)))

		if err := out.Send(ctx, msg); err != nil {
			msg.Release()
			return err
		}
	}
}
