package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequentialIDGenerator(t *testing.T) {
	g := NewSequentialIDGenerator("fx")
	assert.Equal(t, "fx-0001", g.Generate())
	assert.Equal(t, "fx-0002", g.Generate())

	g.Reset()
	assert.Equal(t, "fx-0001", g.Generate())
}

func TestSequentialIDGenerator_DefaultPrefix(t *testing.T) {
	assert.Equal(t, "fixture-0001", NewSequentialIDGenerator("").Generate())
}

func TestSequentialIDGenerator_Concurrent(t *testing.T) {
	g := NewSequentialIDGenerator("c")
	seen := sync.Map{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, dup := seen.LoadOrStore(g.Generate(), true)
			assert.False(t, dup)
		}()
	}
	wg.Wait()
}

func TestEx1_MatchesFile(t *testing.T) {
	e := Ex1()
	assert.Equal(t, int64(30000), e.TotalBallots())
	assert.FileExists(t, Ex1Path())
}
