package sequence

// Queue is a slice-backed FIFO queue. Not safe for concurrent use; callers
// guard it with their own lock.
type Queue[T any] struct {
	items []T
}

func NewQueue[T any]() *Queue[T] {
	return &Queue[T]{}
}

func (q *Queue[T]) Enqueue(value T) {
	q.items = append(q.items, value)
}

func (q *Queue[T]) Dequeue() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	value := q.items[0]
	var zero T
	q.items[0] = zero // avoid memory leak
	q.items = q.items[1:]
	return value, true
}

func (q *Queue[T]) Peek() (T, bool) {
	if len(q.items) == 0 {
		var zero T
		return zero, false
	}
	return q.items[0], true
}

func (q *Queue[T]) Len() int {
	return len(q.items)
}

func (q *Queue[T]) IsEmpty() bool {
	return len(q.items) == 0
}

// Drain empties the queue and returns the items in FIFO order.
func (q *Queue[T]) Drain() []T {
	items := q.items
	q.items = nil
	return items
}

// ClassQueue holds a fixed number of FIFO classes with strict ordering
// between them: Dequeue exhausts class 0 before touching class 1, and so on.
// Within a class, insertion order is preserved.
type ClassQueue[T any] struct {
	classes []Queue[T]
}

func NewClassQueue[T any](classes int) *ClassQueue[T] {
	if classes < 1 {
		classes = 1
	}
	return &ClassQueue[T]{classes: make([]Queue[T], classes)}
}

func (cq *ClassQueue[T]) Enqueue(class int, value T) {
	if class < 0 {
		class = 0
	}
	if class >= len(cq.classes) {
		class = len(cq.classes) - 1
	}
	cq.classes[class].Enqueue(value)
}

// Dequeue returns the oldest item of the most urgent non-empty class.
func (cq *ClassQueue[T]) Dequeue() (T, bool) {
	for i := range cq.classes {
		if value, ok := cq.classes[i].Dequeue(); ok {
			return value, true
		}
	}
	var zero T
	return zero, false
}

func (cq *ClassQueue[T]) Len() int {
	total := 0
	for i := range cq.classes {
		total += cq.classes[i].Len()
	}
	return total
}

func (cq *ClassQueue[T]) LenClass(class int) int {
	if class < 0 || class >= len(cq.classes) {
		return 0
	}
	return cq.classes[class].Len()
}

func (cq *ClassQueue[T]) IsEmpty() bool {
	return cq.Len() == 0
}

// Drain empties every class, most urgent first, preserving FIFO order within
// each class.
func (cq *ClassQueue[T]) Drain() []T {
	var items []T
	for i := range cq.classes {
		items = append(items, cq.classes[i].Drain()...)
	}
	return items
}
