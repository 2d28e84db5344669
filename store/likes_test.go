package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLikeIndexToggleRoundTrip(t *testing.T) {
	x := newLikeIndex()
	assert.False(t, x.IsLiked(1, 2))

	assert.True(t, x.Add(1, 2))
	assert.False(t, x.Add(1, 2), "second add is a no-op")
	assert.True(t, x.IsLiked(1, 2))
	assert.Equal(t, 1, x.CountFor(1))

	assert.True(t, x.Remove(1, 2))
	assert.False(t, x.Remove(1, 2))
	assert.False(t, x.IsLiked(1, 2))
	assert.Equal(t, 0, x.CountFor(1))
}

func TestLikeIndexPurgePost(t *testing.T) {
	x := newLikeIndex()
	x.Add(1, 10)
	x.Add(2, 10)
	x.Add(1, 11)

	assert.Equal(t, 2, x.PurgePost(1))
	assert.False(t, x.IsLiked(1, 10))
	assert.False(t, x.IsLiked(1, 11))
	assert.True(t, x.IsLiked(2, 10))
	assert.Equal(t, []int{2}, x.LikedBy(10))
	assert.Nil(t, x.LikedBy(11))
}

func TestLikeIndexDecodeDedupesAndEncodes(t *testing.T) {
	x, err := decodeLikes([]byte(`{"1":["5","5","6"],"2":["5"]}`))
	require.NoError(t, err)
	assert.Equal(t, map[int]int{5: 2, 6: 1}, x.Counts())

	out, err := x.encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"1":["5","6"],"2":["5"]}`, string(out))
}

func TestLikeIndexRetain(t *testing.T) {
	x, err := decodeLikes([]byte(`{"1":["5","junk","7"]}`))
	require.NoError(t, err)

	removed := x.Retain(func(postID int) bool { return postID == 5 })
	assert.Equal(t, 2, removed)
	assert.Equal(t, []int{5}, x.LikedBy(1))
	assert.True(t, x.dirty)
}

func TestLikeIndexCloneIsIndependent(t *testing.T) {
	x := newLikeIndex()
	x.Add(1, 1)
	c := x.clone()
	c.Add(2, 1)
	c.Remove(1, 1)

	assert.True(t, x.IsLiked(1, 1))
	assert.False(t, x.IsLiked(2, 1))
}
