package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int]()
	q.Enqueue(1)
	q.Enqueue(2)
	q.Enqueue(3)

	head, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, 1, head)
	assert.Equal(t, 3, q.Len())

	var out []int
	for {
		v, ok := q.Dequeue()
		if !ok {
			break
		}
		out = append(out, v)
	}
	assert.Equal(t, []int{1, 2, 3}, out)
	assert.True(t, q.IsEmpty())
}

func TestQueueDequeueEmpty(t *testing.T) {
	q := NewQueue[string]()
	v, ok := q.Dequeue()
	assert.False(t, ok)
	assert.Equal(t, "", v)
}

func TestClassQueueStrictOrder(t *testing.T) {
	cq := NewClassQueue[string](3)
	cq.Enqueue(2, "low-a")
	cq.Enqueue(2, "low-b")
	cq.Enqueue(0, "high")
	cq.Enqueue(1, "normal")

	var out []string
	for {
		v, ok := cq.Dequeue()
		if !ok {
			break
		}
		out = append(out, v)
	}
	assert.Equal(t, []string{"high", "normal", "low-a", "low-b"}, out)
}

func TestClassQueueClampsClass(t *testing.T) {
	cq := NewClassQueue[int](2)
	cq.Enqueue(-5, 1)
	cq.Enqueue(99, 2)

	assert.Equal(t, 1, cq.LenClass(0))
	assert.Equal(t, 1, cq.LenClass(1))
}

func TestClassQueueDrain(t *testing.T) {
	cq := NewClassQueue[int](2)
	cq.Enqueue(1, 10)
	cq.Enqueue(0, 20)
	cq.Enqueue(1, 30)

	assert.Equal(t, []int{20, 10, 30}, cq.Drain())
	assert.True(t, cq.IsEmpty())
}

func TestIteratorSortStable(t *testing.T) {
	type entry struct {
		name string
		rank int
	}
	in := []entry{{"a", 1}, {"b", 2}, {"c", 1}, {"d", 2}}

	got := From(in).Sort(func(x, y entry) bool { return x.rank > y.rank }).Collect()

	assert.Equal(t, []entry{{"b", 2}, {"d", 2}, {"a", 1}, {"c", 1}}, got)
}

func TestIteratorFilterCount(t *testing.T) {
	n := From([]int{1, 2, 3, 4, 5}).Filter(func(v int) bool { return v%2 == 1 }).Count()
	assert.Equal(t, 3, n)
}

func TestIteratorFind(t *testing.T) {
	v, ok := From([]int{3, 6, 9}).Find(func(v int) bool { return v > 4 })
	require.True(t, ok)
	assert.Equal(t, 6, v)

	_, ok = From([]int{3}).Find(func(v int) bool { return v > 4 })
	assert.False(t, ok)
}
