package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCoreContent(t *testing.T) {
	assert.True(t, IsCoreContent(BlockTitle))
	assert.True(t, IsCoreContent(BlockSectionHeader))
	assert.True(t, IsCoreContent(BlockParagraph))
	assert.True(t, IsCoreContent(BlockList))

	assert.False(t, IsCoreContent(BlockFootnote))
	assert.False(t, IsCoreContent(BlockPageNumber))
	assert.False(t, IsCoreContent(BlockHeader))
	assert.False(t, IsCoreContent(BlockOther))
}
