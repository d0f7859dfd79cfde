package flair

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestComment(t *testing.T) {
	t.Parallel()

	c := Comment("newbie", "explainlikeimfive", "https://www.reddit.com/r/explainlikeimfive/comments/abc/")

	assert.Contains(t, c, "/u/newbie")
	assert.Contains(t, c, "(https://www.reddit.com/r/explainlikeimfive/comments/abc/)")
	assert.Contains(t, c, "(https://www.reddit.com/message/compose/?to=/r/explainlikeimfive)")
}
