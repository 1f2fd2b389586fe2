package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/prn-tf/itlibrary/internal/domain"
	"github.com/prn-tf/itlibrary/internal/storage"
)

// JournalName is the logical name of the pending multi-document commit.
const JournalName = "journal"

// Document is one entry of a SaveAll batch.
type Document struct {
	Name  string
	Value any
}

type journal struct {
	StartedAt time.Time                  `json:"startedAt"`
	Documents map[string]json.RawMessage `json:"documents"`
}

// SaveAll commits every document or, from a reader's point of view after
// Recover, none of them. Batcher backends commit in one transaction; the
// rest go through a journal document that Recover replays.
func (a *Adapter) SaveAll(ctx context.Context, docs ...Document) error {
	encoded := make(map[string][]byte, len(docs))
	for _, d := range docs {
		data, err := json.Marshal(d.Value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", a.Key(d.Name), err)
		}
		encoded[a.Key(d.Name)] = data
	}

	if b, ok := a.backend.(storage.Batcher); ok {
		return a.commitBatch(ctx, b, encoded)
	}
	return a.commitJournaled(ctx, encoded)
}

func (a *Adapter) commitBatch(ctx context.Context, b storage.Batcher, encoded map[string][]byte) error {
	bctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	err := b.PutBatch(bctx, encoded)
	for key := range encoded {
		a.metrics.ObserveSave(key, err)
	}
	if err != nil {
		a.logger.Error().Err(err).Int("documents", len(encoded)).Msg("batch commit failed")
		return fmt.Errorf("%w: batch commit: %v", domain.ErrStorageUnavailable, err)
	}

	for key, data := range encoded {
		a.mirror(ctx, key, data)
	}
	return nil
}

func (a *Adapter) commitJournaled(ctx context.Context, encoded map[string][]byte) error {
	j := journal{StartedAt: time.Now().UTC(), Documents: make(map[string]json.RawMessage, len(encoded))}
	for key, data := range encoded {
		j.Documents[key] = data
	}
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}

	journalKey := a.Key(JournalName)
	if err := a.put(ctx, journalKey, payload); err != nil {
		a.logger.Error().Err(err).Msg("journal write failed, nothing committed")
		return fmt.Errorf("%w: write journal: %v", domain.ErrStorageUnavailable, err)
	}

	if err := a.apply(ctx, encoded); err != nil {
		a.logger.Error().Err(err).Msg("journaled commit interrupted, kept for recovery")
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	if err := a.deleteKey(ctx, journalKey); err != nil {
		// Every document is in place; a leftover journal only replays the same bytes.
		a.logger.Warn().Err(err).Msg("journal cleanup failed")
	}
	return nil
}

// apply writes encoded in key order.
func (a *Adapter) apply(ctx context.Context, encoded map[string][]byte) error {
	keys := make([]string, 0, len(encoded))
	for key := range encoded {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		err := a.put(ctx, key, encoded[key])
		a.metrics.ObserveSave(key, err)
		if err != nil {
			return fmt.Errorf("save %s: %v", key, err)
		}
		a.mirror(ctx, key, encoded[key])
	}
	return nil
}

func (a *Adapter) deleteKey(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	err := a.backend.Delete(ctx, key)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return nil
	}
	return err
}

// Recover replays a journal left behind by an interrupted SaveAll.
// It reports whether a journal was replayed.
func (a *Adapter) Recover(ctx context.Context) (bool, error) {
	journalKey := a.Key(JournalName)

	data, err := a.get(ctx, journalKey)
	if errors.Is(err, storage.ErrDocumentNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: read journal: %v", domain.ErrStorageUnavailable, err)
	}

	var j journal
	if err := json.Unmarshal(data, &j); err != nil {
		a.logger.Warn().Err(err).Msg("discarding unreadable journal")
		if derr := a.deleteKey(ctx, journalKey); derr != nil {
			return false, fmt.Errorf("%w: discard journal: %v", domain.ErrStorageUnavailable, derr)
		}
		return false, nil
	}

	encoded := make(map[string][]byte, len(j.Documents))
	for key, raw := range j.Documents {
		encoded[key] = raw
	}
	if err := a.apply(ctx, encoded); err != nil {
		return false, fmt.Errorf("%w: replay journal: %v", domain.ErrStorageUnavailable, err)
	}
	if err := a.deleteKey(ctx, journalKey); err != nil {
		return false, fmt.Errorf("%w: clear journal: %v", domain.ErrStorageUnavailable, err)
	}

	a.metrics.ObserveRecovery()
	a.logger.Info().
		Time("started_at", j.StartedAt).
		Int("documents", len(encoded)).
		Msg("replayed interrupted commit")
	return true, nil
}
