// Copyright (C) 2026 ManiGOo
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManiGOo/hcp-crm-task/services/crm/datatypes"
)

func newTestStore(t *testing.T) *InteractionStore {
	t.Helper()
	st, err := NewInteractionStore(InMemoryConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createPayload(hcpName string) datatypes.InteractionCreate {
	return datatypes.InteractionCreate{
		HCPName:         hcpName,
		Date:            "2026-03-15",
		InteractionType: datatypes.TypeMeeting,
		Outcomes:        datatypes.OutcomeNeutral,
		Topics:          "efficacy data",
	}
}

func TestCreateAndGetRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.CreateRecord(ctx, createPayload("Dr. Sarah Chen"))
	require.NoError(t, err)
	assert.Positive(t, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := st.GetRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dr. Sarah Chen", got.HCPName)
	assert.Equal(t, "2026-03-15", got.Date)
	assert.Equal(t, datatypes.TypeMeeting, got.InteractionType)
}

func TestGetRecord_NotFound(t *testing.T) {
	st := newTestStore(t)

	_, err := st.GetRecord(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateRecord_MonotonicIDs(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		rec, err := st.CreateRecord(ctx, createPayload(fmt.Sprintf("Dr. Number %d", i)))
		require.NoError(t, err)
		assert.Greater(t, rec.ID, last)
		last = rec.ID
	}
}

func TestUpdateRecord_PartialOnly(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.CreateRecord(ctx, createPayload("Dr. Sarah Chen"))
	require.NoError(t, err)

	outcome := datatypes.OutcomeNegative
	updates := &datatypes.InteractionUpdate{Outcomes: &outcome}

	updated, err := st.UpdateRecord(ctx, rec.ID, updates)
	require.NoError(t, err)
	assert.Equal(t, datatypes.OutcomeNegative, updated.Outcomes)
	assert.False(t, updated.UpdatedAt.IsZero())

	// Unmentioned fields survive the update byte for byte.
	assert.Equal(t, rec.HCPName, updated.HCPName)
	assert.Equal(t, rec.Date, updated.Date)
	assert.Equal(t, rec.Topics, updated.Topics)
	assert.Equal(t, rec.InteractionType, updated.InteractionType)
}

func TestUpdateRecord_NotFound(t *testing.T) {
	st := newTestStore(t)

	topics := "new topics"
	_, err := st.UpdateRecord(context.Background(), 42, &datatypes.InteractionUpdate{Topics: &topics})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.CreateRecord(ctx, createPayload("Dr. Sarah Chen"))
	require.NoError(t, err)

	require.NoError(t, st.DeleteRecord(ctx, rec.ID))

	_, err = st.GetRecord(ctx, rec.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, st.DeleteRecord(ctx, rec.ID), ErrNotFound)
}

func TestListRecords_Pagination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := st.CreateRecord(ctx, createPayload(fmt.Sprintf("Dr. Number %d", i)))
		require.NoError(t, err)
	}

	all, err := st.ListRecords(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].ID, all[i-1].ID)
	}

	page, err := st.ListRecords(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, all[2].ID, page[0].ID)
	assert.Equal(t, all[3].ID, page[1].ID)
}

func TestFindRecordsByName_CaseInsensitive(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.CreateRecord(ctx, createPayload("Dr. Sarah Chen"))
	require.NoError(t, err)
	_, err = st.CreateRecord(ctx, createPayload("Dr. Miguel Ortiz"))
	require.NoError(t, err)
	_, err = st.CreateRecord(ctx, createPayload("Sarah Smith, NP"))
	require.NoError(t, err)

	records, err := st.FindRecordsByName(ctx, "sarah")
	require.NoError(t, err)
	require.Len(t, records, 2)

	records, err = st.FindRecordsByName(ctx, "ORTIZ")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Dr. Miguel Ortiz", records[0].HCPName)

	records, err = st.FindRecordsByName(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestGetMostRecentRecord(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	rec, err := st.GetMostRecentRecord(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = st.CreateRecord(ctx, createPayload("Dr. First"))
	require.NoError(t, err)
	second, err := st.CreateRecord(ctx, createPayload("Dr. Second"))
	require.NoError(t, err)

	rec, err = st.GetMostRecentRecord(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, second.ID, rec.ID)
	assert.Equal(t, "Dr. Second", rec.HCPName)
}

func TestStore_ContextCancelled(t *testing.T) {
	st := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.CreateRecord(ctx, createPayload("Dr. Sarah Chen"))
	assert.ErrorIs(t, err, context.Canceled)
}
