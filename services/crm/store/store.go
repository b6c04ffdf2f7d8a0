// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
)

// ErrNotFound indicates the requested interaction id does not exist.
// Callers must distinguish it from storage failures: a missing record is a
// conversational outcome, a failed transaction is not.
var ErrNotFound = errors.New("interaction not found")

const (
	// recordKeyPrefix namespaces interaction records. Keys are zero-padded
	// so byte order equals id order, which makes "most recent" a reverse
	// scan to the first key.
	recordKeyPrefix = "interaction/"

	// seqKey is the key of the id sequence.
	seqKey = "seq/interaction"

	// seqBandwidth is how many ids the sequence leases per fetch.
	seqBandwidth = 64
)

func recordKey(id int64) []byte {
	return []byte(fmt.Sprintf("%s%020d", recordKeyPrefix, id))
}

// InteractionStore is the persistence gateway for interaction records.
//
// # Description
//
// Owns durable storage of interaction records on an embedded BadgerDB.
// Every operation runs in its own badger transaction, so concurrent
// create/update/search calls are serialized by the database, not by the
// pipeline.
//
// # Thread Safety
//
// InteractionStore is safe for concurrent use.
type InteractionStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

// NewInteractionStore opens the store with the given configuration.
// Caller must call Close() when done.
func NewInteractionStore(cfg Config) (*InteractionStore, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	seq, err := db.GetSequence([]byte(seqKey), seqBandwidth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}
	return &InteractionStore{db: db, seq: seq}, nil
}

// Close releases the id sequence and closes the database.
func (s *InteractionStore) Close() error {
	if err := s.seq.Release(); err != nil {
		slog.Warn("Failed to release the id sequence", "error", err)
	}
	return s.db.Close()
}

// CreateRecord persists a validated create payload as a new record.
//
// Inputs:
//
//	in - Validated payload. The caller owns validation; the store persists.
//
// Outputs:
//
//	*datatypes.Interaction - The stored record with id and timestamps set.
//	error - Non-nil only on storage failure.
func (s *InteractionStore) CreateRecord(ctx context.Context, in datatypes.InteractionCreate) (*datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n, err := s.seq.Next()
	if err != nil {
		return nil, fmt.Errorf("allocate interaction id: %w", err)
	}
	now := time.Now().UTC()
	rec := datatypes.Interaction{
		ID:                   int64(n) + 1, // sequence starts at 0, ids at 1
		HCPName:              in.HCPName,
		Attendees:            in.Attendees,
		Date:                 in.Date,
		Time:                 in.Time,
		InteractionType:      in.InteractionType,
		Topics:               in.Topics,
		MaterialsDistributed: in.MaterialsDistributed,
		Outcomes:             in.Outcomes,
		FollowUp:             in.FollowUp,
		Summary:              in.Summary,
		CreatedAt:            now,
	}

	payload, err := json.Marshal(&rec)
	if err != nil {
		return nil, fmt.Errorf("marshal interaction record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(rec.ID), payload)
	})
	if err != nil {
		return nil, fmt.Errorf("persist interaction record: %w", err)
	}
	slog.Info("Created interaction record", "id", rec.ID, "hcp_name", rec.HCPName)
	return &rec, nil
}

// UpdateRecord applies a partial update to an existing record.
//
// Only fields set on the update are written; everything else is preserved
// exactly as stored. Returns ErrNotFound if the id does not exist.
func (s *InteractionStore) UpdateRecord(ctx context.Context, id int64, updates *datatypes.InteractionUpdate) (*datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec datatypes.Interaction
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		}); err != nil {
			return fmt.Errorf("unmarshal interaction %d: %w", id, err)
		}

		changed := updates.Apply(&rec)
		rec.UpdatedAt = time.Now().UTC()

		payload, err := json.Marshal(&rec)
		if err != nil {
			return fmt.Errorf("marshal interaction %d: %w", id, err)
		}
		slog.Info("Updating interaction record", "id", id, "changed", strings.Join(changed, ","))
		return txn.Set(recordKey(id), payload)
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// GetRecord returns a single record by id, or ErrNotFound.
func (s *InteractionStore) GetRecord(ctx context.Context, id int64) (*datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec datatypes.Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes a record by id. Returns ErrNotFound if absent.
func (s *InteractionStore) DeleteRecord(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(recordKey(id)); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		} else if err != nil {
			return err
		}
		return txn.Delete(recordKey(id))
	})
}

// ListRecords returns records in id order with offset/limit pagination.
// A limit of 0 means no limit.
func (s *InteractionStore) ListRecords(ctx context.Context, skip, limit int) ([]datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var records []datatypes.Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid(); it.Next() {
			if skipped < skip {
				skipped++
				continue
			}
			if limit > 0 && len(records) >= limit {
				break
			}
			var rec datatypes.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list interaction records: %w", err)
	}
	return records, nil
}

// FindRecordsByName returns all records whose hcp_name contains the query
// as a case-insensitive substring, in id order.
func (s *InteractionStore) FindRecordsByName(ctx context.Context, query string) ([]datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var records []datatypes.Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec datatypes.Interaction
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			if strings.Contains(strings.ToLower(rec.HCPName), needle) {
				records = append(records, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("search interaction records: %w", err)
	}
	return records, nil
}

// GetMostRecentRecord returns the record with the highest id, or nil when
// the store is empty.
func (s *InteractionStore) GetMostRecentRecord(ctx context.Context) (*datatypes.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *datatypes.Interaction
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordKeyPrefix)
		opts.Reverse = true
		it := txn.NewIterator(opts)
		defer it.Close()

		// In reverse mode, seek past the prefix range to land on the
		// highest interaction key.
		it.Seek([]byte(recordKeyPrefix + "\xff"))
		if !it.Valid() {
			return nil
		}
		var r datatypes.Interaction
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		}); err != nil {
			return err
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read most recent interaction: %w", err)
	}
	return rec, nil
}
