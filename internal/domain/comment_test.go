package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComment_ReplyPosition(t *testing.T) {
	top := &Comment{ID: "cmt-top"}
	assert.False(t, top.Position().IsReply())
	assert.Equal(t, ReplyTo("cmt-top"), top.ReplyPosition())

	reply := &Comment{ID: "cmt-reply"}
	reply.Place(top.ReplyPosition())
	require.NotNil(t, reply.ParentID)
	assert.Equal(t, "cmt-top", *reply.ParentID)
	assert.Equal(t, "cmt-top", reply.Position().ParentID())
	assert.Equal(t, ReplyTo("cmt-top"), reply.ReplyPosition(), "replying to a reply joins the top-level thread")

	reply.Place(TopLevel())
	assert.Nil(t, reply.ParentID)
}

func TestTarget_Validity(t *testing.T) {
	assert.True(t, ReviewTarget("rev-1").ValidForComment())
	assert.True(t, ListTarget("list-1").ValidForComment())
	assert.False(t, CommentTarget("cmt-1").ValidForComment())
	assert.False(t, ReviewTarget("").ValidForComment())

	assert.True(t, ReviewTarget("rev-1").ValidForLike())
	assert.True(t, CommentTarget("cmt-1").ValidForLike())
	assert.False(t, ListTarget("list-1").ValidForLike())
}

func TestPageMath(t *testing.T) {
	assert.Equal(t, 2, TotalPages(15, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 0, TotalPages(0, 10))

	p := NewPage[int](nil, 1, 10, 0)
	assert.NotNil(t, p.Items)
	assert.Equal(t, 0, p.TotalPages)
}
