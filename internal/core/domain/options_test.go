package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/bake/internal/core/domain"
)

func TestOptions(t *testing.T) {
	opts := domain.NewOptions("DIR:src", "OPT:2", " ", "DIR:include", "DIR:src")
	opts.Merge(domain.NewOptions("OPT:4", "DEPENDENCYONLY"))

	assert.Equal(t, []string{"DIR:src", "OPT:2", "DIR:include", "OPT:4", "DEPENDENCYONLY"}, opts.Tokens())
	assert.Equal(t, 5, opts.Len())
	assert.True(t, opts.Has("DEPENDENCYONLY"))
	assert.False(t, opts.Has("DIR"))
	assert.Equal(t, []string{"src", "include"}, opts.Values("DIR"))

	level, ok := opts.Value("OPT")
	assert.True(t, ok)
	assert.Equal(t, "4", level)

	_, ok = opts.Value("PREFIX")
	assert.False(t, ok)
}

func TestOptions_ZeroValue(t *testing.T) {
	var opts domain.Options

	assert.False(t, opts.Has("anything"))
	assert.Empty(t, opts.Tokens())
	assert.Nil(t, opts.Values("DIR"))
}

func TestOptions_TokensIsACopy(t *testing.T) {
	opts := domain.NewOptions("A", "B")
	tokens := opts.Tokens()
	tokens[0] = "Z"

	assert.Equal(t, []string{"A", "B"}, opts.Tokens())
}
