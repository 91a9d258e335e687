package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAllowList(t *testing.T) {
	a := ParseAllowList(" 1, 22 ,abc,,-5 ")
	assert.True(t, a.Allowed(1))
	assert.True(t, a.Allowed(22))
	assert.True(t, a.Allowed(-5))
	assert.False(t, a.Allowed(3))
	assert.Len(t, a, 3)

	assert.False(t, ParseAllowList("").Allowed(1), "empty list allows nobody")
}
