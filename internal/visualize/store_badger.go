package visualize

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"niwaki/internal/imagegen"
	"niwaki/internal/infra"
)

const (
	jobKeyPrefix   = "job:"
	imageKeyPrefix = "img:"

	// In-memory badger rejects values above 1 MiB, so image bytes are split.
	imageChunkSize = 512 << 10
)

type jobRecord struct {
	Job   Job         `json:"job"`
	Prefs Preferences `json:"prefs"`
}

type imageMeta struct {
	MIMEType string `json:"mimeType"`
	Size     int    `json:"size"`
	Chunks   int    `json:"chunks"`
}

// BadgerStore keeps jobs in an in-memory badger instance. Terminal jobs are
// written with a TTL equal to the retention window, so expiry needs no timers.
// Image bytes live under their own keys, chunked, with a TTL of retention
// plus MaxJobDuration so they never expire before the job that owns them.
type BadgerStore struct {
	db        *badger.DB
	retention time.Duration
	now       func() time.Time
}

// OpenBadgerStore opens an in-memory store. Nothing survives a restart.
func OpenBadgerStore(retention time.Duration, logger zerolog.Logger) (*BadgerStore, error) {
	if retention <= 0 {
		return nil, errors.New("visualize: retention must be positive")
	}
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(infra.BadgerLogger{L: logger.With().Str("component", "jobstore").Logger()})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("visualize: open job store: %w", err)
	}
	return &BadgerStore{db: db, retention: retention, now: time.Now}, nil
}

// Close releases the badger instance.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func jobKey(id string) []byte {
	return []byte(jobKeyPrefix + id)
}

func imagePrefix(jobID string) []byte {
	return []byte(imageKeyPrefix + jobID + ":")
}

func imageMetaKey(jobID, resultID string) []byte {
	return []byte(imageKeyPrefix + jobID + ":" + resultID)
}

func imageChunkKey(jobID, resultID string, n int) []byte {
	return []byte(fmt.Sprintf("%s%s:%s#%04d", imageKeyPrefix, jobID, resultID, n))
}

func (s *BadgerStore) Create(ctx context.Context, prefs Preferences) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	now := s.now().UTC()
	rec := jobRecord{
		Job: Job{
			ID:        uuid.NewString(),
			Status:    StatusPending,
			Results:   []Result{},
			CreatedAt: now,
			UpdatedAt: now,
		},
		Prefs: prefs,
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return Job{}, fmt.Errorf("visualize: encode job: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(jobKey(rec.Job.ID), data))
	})
	if err != nil {
		return Job{}, fmt.Errorf("visualize: create job: %w", err)
	}
	return rec.Job, nil
}

func readRecord(txn *badger.Txn, id string) (jobRecord, error) {
	var rec jobRecord
	item, err := txn.Get(jobKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, ErrJobNotFound
	}
	if err != nil {
		return rec, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	})
	return rec, err
}

func (s *BadgerStore) Get(ctx context.Context, id string) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}
	var job Job
	err := s.db.View(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, id)
		if err != nil {
			return err
		}
		job = rec.Job
		for i := range job.Results {
			img, err := readImage(txn, id, job.Results[i].ID)
			if errors.Is(err, ErrImageNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			job.Results[i].ImageURL = img.DataURI()
		}
		return nil
	})
	if errors.Is(err, ErrJobNotFound) {
		return Job{}, ErrJobNotFound
	}
	if err != nil {
		return Job{}, fmt.Errorf("visualize: get job: %w", err)
	}
	if job.Results == nil {
		job.Results = []Result{}
	}
	return job, nil
}

func (s *BadgerStore) Update(ctx context.Context, id string, patch Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		rec, err := readRecord(txn, id)
		if err != nil {
			return err
		}
		if rec.Job.Status.Terminal() {
			return ErrJobFinished
		}
		patch.apply(&rec.Job)
		for i := range rec.Job.Results {
			rec.Job.Results[i].ImageURL = ""
		}
		rec.Job.UpdatedAt = s.now().UTC()
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		entry := badger.NewEntry(jobKey(id), data)
		if rec.Job.Status.Terminal() {
			entry = entry.WithTTL(s.retention)
		}
		return txn.SetEntry(entry)
	})
	switch {
	case errors.Is(err, ErrJobNotFound):
		return nil
	case errors.Is(err, ErrJobFinished):
		return ErrJobFinished
	case err != nil:
		return fmt.Errorf("visualize: update job %s: %w", id, err)
	}
	return nil
}

func (s *BadgerStore) Expire(_ context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		var keys [][]byte
		prefix := imagePrefix(id)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		it.Close()
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return txn.Delete(jobKey(id))
	})
	if err != nil {
		return fmt.Errorf("visualize: expire job %s: %w", id, err)
	}
	return nil
}

// PutImage writes the chunks first and the meta entry last, so a reader
// never sees a partial image.
func (s *BadgerStore) PutImage(ctx context.Context, jobID, resultID string, img imagegen.Image) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(img.Data) > MaxImageBytes {
		return fmt.Errorf("%w: %d bytes", ErrImageTooLarge, len(img.Data))
	}
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(jobKey(jobID))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("visualize: put image %s/%s: %w", jobID, resultID, err)
	}

	ttl := s.retention + MaxJobDuration
	meta := imageMeta{MIMEType: img.MIMEType, Size: len(img.Data)}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for off := 0; off < len(img.Data); off += imageChunkSize {
		end := min(off+imageChunkSize, len(img.Data))
		chunk := append([]byte(nil), img.Data[off:end]...)
		if err := wb.SetEntry(badger.NewEntry(imageChunkKey(jobID, resultID, meta.Chunks), chunk).WithTTL(ttl)); err != nil {
			return fmt.Errorf("visualize: put image %s/%s: %w", jobID, resultID, err)
		}
		meta.Chunks++
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("visualize: put image %s/%s: %w", jobID, resultID, err)
	}

	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("visualize: encode image meta: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(imageMetaKey(jobID, resultID), data).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("visualize: put image %s/%s: %w", jobID, resultID, err)
	}
	return nil
}

func (s *BadgerStore) Image(ctx context.Context, jobID, resultID string) (imagegen.Image, error) {
	if err := ctx.Err(); err != nil {
		return imagegen.Image{}, err
	}
	var img imagegen.Image
	err := s.db.View(func(txn *badger.Txn) error {
		if _, err := txn.Get(jobKey(jobID)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrImageNotFound
			}
			return err
		}
		var err error
		img, err = readImage(txn, jobID, resultID)
		return err
	})
	if errors.Is(err, ErrImageNotFound) {
		return imagegen.Image{}, ErrImageNotFound
	}
	if err != nil {
		return imagegen.Image{}, fmt.Errorf("visualize: read image %s/%s: %w", jobID, resultID, err)
	}
	return img, nil
}

func readImage(txn *badger.Txn, jobID, resultID string) (imagegen.Image, error) {
	item, err := txn.Get(imageMetaKey(jobID, resultID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return imagegen.Image{}, ErrImageNotFound
	}
	if err != nil {
		return imagegen.Image{}, err
	}
	var meta imageMeta
	if err := item.Value(func(val []byte) error { return json.Unmarshal(val, &meta) }); err != nil {
		return imagegen.Image{}, err
	}
	data := make([]byte, 0, meta.Size)
	for n := 0; n < meta.Chunks; n++ {
		chunk, err := txn.Get(imageChunkKey(jobID, resultID, n))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return imagegen.Image{}, ErrImageNotFound
		}
		if err != nil {
			return imagegen.Image{}, err
		}
		if err := chunk.Value(func(val []byte) error {
			data = append(data, val...)
			return nil
		}); err != nil {
			return imagegen.Image{}, err
		}
	}
	return imagegen.Image{Data: data, MIMEType: meta.MIMEType}, nil
}

var _ Store = (*BadgerStore)(nil)
