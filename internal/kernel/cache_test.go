package kernel

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	released atomic.Bool
}

func (o *fakeObject) Release() { o.released.Store(true) }

type fakeCompiler struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (c *fakeCompiler) Compile(Source) (Object, error) {
	c.calls.Add(1)
	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.err != nil {
		return nil, c.err
	}
	return &fakeObject{}, nil
}

func TestCacheHitSkipsCompiler(t *testing.T) {
	compiler := &fakeCompiler{}
	cache := NewCache(compiler)
	src := testSource()
	src.EntryPoint = "cache_hit"

	k1, err := cache.GetOrCompile(src)
	require.NoError(t, err)
	k2, err := cache.GetOrCompile(src)
	require.NoError(t, err)

	assert.Equal(t, int32(1), compiler.calls.Load())
	assert.Same(t, k1.Object(), k2.Object())
	assert.NotSame(t, k1, k2, "every caller gets its own binding cursor")
	assert.Equal(t, 1, cache.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheHits.WithLabelValues("cache_hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(cacheMisses.WithLabelValues("cache_hit")))
}

func TestCacheKeyIncludesEntryPoint(t *testing.T) {
	compiler := &fakeCompiler{}
	cache := NewCache(compiler)

	a := testSource()
	b := testSource()
	b.EntryPoint = "other"
	c := testSource()
	c.Code += "\n"

	for _, src := range []Source{a, b, c, a} {
		_, err := cache.GetOrCompile(src)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), compiler.calls.Load())
	assert.NotEqual(t, a.Key(), b.Key())
	assert.Equal(t, a.Key(), testSource().Key())
}

func TestCacheConcurrentMissCompilesOnce(t *testing.T) {
	compiler := &fakeCompiler{delay: 20 * time.Millisecond}
	cache := NewCache(compiler)
	src := testSource()

	const callers = 16
	objects := make([]Object, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			k, err := cache.GetOrCompile(src)
			if assert.NoError(t, err) {
				objects[i] = k.Object()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), compiler.calls.Load())
	for _, obj := range objects[1:] {
		assert.Same(t, objects[0], obj)
	}
}

func TestCacheCompilationErrorNotCached(t *testing.T) {
	cause := errors.New("syntax error at 3:7")
	compiler := &fakeCompiler{err: cause}
	cache := NewCache(compiler)
	src := testSource()

	_, err := cache.GetOrCompile(src)
	require.Error(t, err)

	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "main", ce.EntryPoint)
	assert.ErrorIs(t, err, cause)

	_, err = cache.GetOrCompile(src)
	require.Error(t, err)
	assert.Equal(t, int32(2), compiler.calls.Load(), "failures are not cached")
	assert.Equal(t, 0, cache.Len())
}

func TestCacheKeepsCompilerDiagnostics(t *testing.T) {
	compiler := &fakeCompiler{err: &CompilationError{EntryPoint: "main", Log: "line 1: unexpected token"}}
	cache := NewCache(compiler)

	_, err := cache.GetOrCompile(testSource())
	var ce *CompilationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "line 1: unexpected token", ce.Log)
	assert.Contains(t, err.Error(), "unexpected token")
}

func TestCacheRelease(t *testing.T) {
	cache := NewCache(&fakeCompiler{})
	k, err := cache.GetOrCompile(testSource())
	require.NoError(t, err)

	cache.Release()
	assert.True(t, k.Object().(*fakeObject).released.Load())
	assert.Equal(t, 0, cache.Len())
}

type fakeQueue struct {
	err    error
	global Size3
	local  Size3
	calls  int
}

func (q *fakeQueue) Dispatch(_ *Kernel, global, local Size3) error {
	q.calls++
	q.global, q.local = global, local
	return q.err
}

func TestDispatchWrapsErrors(t *testing.T) {
	var sig Signature
	sig.Add(ArgInt)
	k := NewKernel(nil, Source{EntryPoint: "wrap", Signature: sig})
	q := &fakeQueue{}

	err := Dispatch(q, k, Size3{32, 1, 1}, Size3{32, 1, 1})
	var de *DispatchError
	require.True(t, errors.As(err, &de))
	assert.ErrorIs(t, err, ErrArgumentCount)
	assert.Equal(t, 0, q.calls)

	require.NoError(t, k.SetBytesAuto(1))
	q.err = errors.New("device lost")
	err = Dispatch(q, k, Size3{32, 2, 1}, Size3{32, 1, 1})
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "wrap", de.Op)
	assert.Equal(t, Size3{32, 2, 1}, q.global)
	assert.Equal(t, 0, k.Cursor(), "failed dispatch must not leave arguments bound")
	require.NoError(t, k.SetBytesAuto(1))

	q.err = nil
	require.NoError(t, Dispatch(q, k, Size3{32, 1, 1}, Size3{32, 1, 1}))
}
