package domain_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/bake/internal/core/domain"
)

func TestSignature_Equal(t *testing.T) {
	tests := []struct {
		name string
		a, b domain.Signature
		want bool
	}{
		{"same digest", domain.Signature{Size: 3, ModTime: 1, Digest: "aa"}, domain.Signature{Size: 3, ModTime: 2, Digest: "aa"}, true},
		{"different digest", domain.Signature{Size: 3, Digest: "aa"}, domain.Signature{Size: 3, Digest: "bb"}, false},
		{"different size", domain.Signature{Size: 3, Digest: "aa"}, domain.Signature{Size: 4, Digest: "aa"}, false},
		{"stat only equal", domain.Signature{Size: 3, ModTime: 7}, domain.Signature{Size: 3, ModTime: 7}, true},
		{"stat only touched", domain.Signature{Size: 3, ModTime: 7}, domain.Signature{Size: 3, ModTime: 8}, false},
		{"one side without digest", domain.Signature{Size: 3, ModTime: 7, Digest: "aa"}, domain.Signature{Size: 3, ModTime: 7}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestBuildContext_Warnings(t *testing.T) {
	bc := domain.NewBuildContext("/src")
	assert.Equal(t, "/src", bc.Root)
	assert.NotNil(t, bc.Graph)

	var wg sync.WaitGroup
	for i := range 10 {
		wg.Go(func() {
			bc.Warn("warning %d", i)
		})
	}
	wg.Wait()

	assert.Len(t, bc.Warnings(), 10)

	snapshot := bc.Warnings()
	snapshot[0] = "mutated"
	assert.NotEqual(t, "mutated", bc.Warnings()[0])
}

func TestBuildContext_WithGraphSharesWarnings(t *testing.T) {
	bc := domain.NewBuildContext("/src")
	bc.Toolchain.CC = "clang"

	sub := bc.WithGraph(domain.NewGraph())
	sub.Warn("from sub")
	bc.Warn("from parent")

	assert.Equal(t, "/src", sub.Root)
	assert.Equal(t, "clang", sub.Toolchain.CC)
	assert.NotSame(t, bc.Graph, sub.Graph)
	assert.Equal(t, []string{"from sub", "from parent"}, bc.Warnings())
}

func TestCommand_String(t *testing.T) {
	cmd := domain.Command{Name: "cc", Args: []string{"-c", "-DNAME=\"x y\"", "a.c"}}
	assert.Equal(t, `cc -c "-DNAME=\"x y\"" a.c`, cmd.String())
}
