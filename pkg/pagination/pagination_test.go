package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDefaults(t *testing.T) {
	p := Normalize(Params{Page: -1})
	assert.Equal(t, Params{Page: 1, Limit: 10}, p)
	assert.Equal(t, 0, p.Offset())
}

func TestNormalizeClampsLimit(t *testing.T) {
	p := Normalize(Params{Page: 3, Limit: 500})
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, MaxLimit, p.Limit)
	assert.Equal(t, 200, p.Offset())
}

func TestMeta(t *testing.T) {
	meta := Params{Page: 2, Limit: 10}.Meta(25)
	assert.Equal(t, 2, meta.Page)
	assert.Equal(t, 10, meta.Limit)
	assert.Equal(t, int64(25), meta.Total)
	assert.Equal(t, 3, meta.Pages)

	assert.Equal(t, 0, Params{}.Meta(0).Pages)
}
