package services

import (
	"context"
	"testing"

	"github.com/File-Sharing-BondBridg/Upload-Service/internal/models"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage"
	"github.com/File-Sharing-BondBridg/Upload-Service/internal/storage/disks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestFor(t *testing.T, f *fixture, owner models.OwnerRef, n int) []models.Asset {
	t.Helper()
	in := NewIngester(f.deps)
	assets := make([]models.Asset, 0, n)
	for i := 0; i < n; i++ {
		asset, err := in.Ingest(context.Background(), owner, textFile("a.txt", "payload"))
		require.NoError(t, err)
		assets = append(assets, asset)
	}
	return assets
}

func TestDeleteOwnershipGuard(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	foreign := ingestFor(t, f, userB, 1)[0]

	report, err := NewDeleter(f.deps, nil).Delete(ctx, userA, &foreign)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
	assert.Empty(t, report.Results)

	_, err = f.store.Get(ctx, foreign.ID)
	assert.NoError(t, err)
	assert.True(t, f.exists(t, foreign.UploadPath))
}

func TestDeleteOrphanIsNeverOwned(t *testing.T) {
	f := newFixture(t, disks.Public)
	orphan := ingestFor(t, f, userA, 1)[0]
	orphan.Owner = models.OwnerRef{}

	_, err := NewDeleter(f.deps, nil).Delete(context.Background(), userA, &orphan)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)

	_, err = NewDeleter(f.deps, nil).Delete(context.Background(), nil, nil)
	assert.ErrorIs(t, err, ErrOwnershipMismatch)
}

func TestDeleteSingle(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	assets := ingestFor(t, f, userA, 2)

	report, err := NewDeleter(f.deps, nil).Delete(ctx, userA, &assets[0])
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Equal(t, []string{assets[0].ID}, report.Deleted())

	_, err = f.store.Get(ctx, assets[0].ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, f.exists(t, assets[0].UploadPath))
	assert.True(t, f.exists(t, assets[1].UploadPath))
	assert.Equal(t, []string{EventUploadCreated, EventUploadCreated, EventUploadDeleted}, f.events.Types())
}

func TestDeleteAllForOwner(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	mine := ingestFor(t, f, userA, 3)
	theirs := ingestFor(t, f, userB, 1)

	report, err := NewDeleter(f.deps, nil).Delete(ctx, userA, nil)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Len(t, report.Results, 3)

	left, err := f.store.ListByOwner(ctx, userA)
	require.NoError(t, err)
	assert.Empty(t, left)
	for _, a := range mine {
		assert.False(t, f.exists(t, a.UploadPath))
	}

	_, err = f.store.Get(ctx, theirs[0].ID)
	assert.NoError(t, err)
	assert.True(t, f.exists(t, theirs[0].UploadPath))
}

func TestDeleteStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	assets := ingestFor(t, f, userA, 3)
	f.disk.failDeleteAfter = 1

	report, err := NewDeleter(f.deps, nil).Delete(ctx, userA, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorage)
	assert.False(t, report.OK())
	require.Len(t, report.Results, 2)
	assert.True(t, report.Results[0].Deleted)
	assert.False(t, report.Results[1].Deleted)
	assert.Error(t, report.Results[1].Err)
	assert.Equal(t, 1, report.Pending)

	left, err := f.store.ListByOwner(ctx, userA)
	require.NoError(t, err)
	assert.Len(t, left, len(assets)-1)
	_, err = f.store.Get(ctx, report.Results[0].AssetID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteWithoutFilesStillRemovesRecord(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	asset := ingestFor(t, f, userA, 1)[0]
	require.NoError(t, f.local.DeleteDirectory(ctx, asset.UploadPath))

	report, err := NewDeleter(f.deps, nil).Delete(ctx, userA, &asset)
	require.NoError(t, err)
	assert.True(t, report.OK())
	_, err = f.store.Get(ctx, asset.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteForgetsCachedURLs(t *testing.T) {
	f := newFixture(t, disks.Public)
	ctx := context.Background()
	m := NewManager(f.deps, ManagerConfig{})
	asset := ingestFor(t, f, userA, 1)[0]

	_, err := m.ResolveURL(ctx, asset, FullSize)
	require.NoError(t, err)
	require.Equal(t, 1, m.resolver.Cache().Len())

	_, err = m.Delete(ctx, userA, &asset)
	require.NoError(t, err)
	assert.Zero(t, m.resolver.Cache().Len())

	_, err = m.ResolveURL(ctx, asset, FullSize)
	assert.ErrorIs(t, err, ErrSourceMissing)
}

func TestDeleteReport(t *testing.T) {
	assert.True(t, DeleteReport{}.OK())
	assert.False(t, DeleteReport{Pending: 2}.OK())
	r := DeleteReport{Results: []DeleteResult{{AssetID: "a", Deleted: true}, {AssetID: "b"}}}
	assert.False(t, r.OK())
	assert.Equal(t, []string{"a"}, r.Deleted())
}
