package models

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type post struct{ id string }

func (p post) AssetOwner() OwnerRef { return OwnerRef{Kind: "post", ID: p.id} }

func TestOwnerRegistryResolve(t *testing.T) {
	reg := NewOwnerRegistry()
	reg.RegisterPassthrough("user")
	reg.Register("post", OwnerResolverFunc(func(_ context.Context, id string) (HasAssets, error) {
		if id != "42" {
			return nil, ErrOwnerNotFound
		}
		return post{id: id}, nil
	}))

	owner, err := reg.Resolve(context.Background(), OwnerRef{Kind: "user", ID: "7"})
	require.NoError(t, err)
	assert.Equal(t, OwnerRef{Kind: "user", ID: "7"}, owner.AssetOwner())

	owner, err = reg.Resolve(context.Background(), OwnerRef{Kind: "post", ID: "42"})
	require.NoError(t, err)
	assert.Equal(t, OwnerRef{Kind: "post", ID: "42"}, owner.AssetOwner())

	_, err = reg.Resolve(context.Background(), OwnerRef{Kind: "post", ID: "1"})
	assert.True(t, errors.Is(err, ErrOwnerNotFound))

	_, err = reg.Resolve(context.Background(), OwnerRef{Kind: "comment", ID: "1"})
	assert.True(t, errors.Is(err, ErrUnknownOwnerKind))

	assert.True(t, reg.Known("post"))
	assert.False(t, reg.Known("comment"))
}

func TestAssetOwnedBy(t *testing.T) {
	a := Asset{Owner: OwnerRef{Kind: "user", ID: "1"}}
	assert.True(t, a.OwnedBy(OwnerRef{Kind: "user", ID: "1"}))
	assert.False(t, a.OwnedBy(OwnerRef{Kind: "post", ID: "1"}))
	assert.False(t, a.OwnedBy(OwnerRef{Kind: "user", ID: "2"}))

	orphan := Asset{}
	assert.False(t, orphan.OwnedBy(OwnerRef{}))
	assert.False(t, orphan.OwnedBy(OwnerRef{Kind: "user", ID: "1"}))
}

func TestAssetIsImage(t *testing.T) {
	assert.True(t, Asset{MimeType: "image/png"}.IsImage())
	assert.False(t, Asset{MimeType: "application/pdf"}.IsImage())
	assert.False(t, Asset{}.IsImage())
}
