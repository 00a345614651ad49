package multipart

import "github.com/annel0/mmo-multipart/internal/vec"

// DefaultMaxQueryDepth ограничивает вложенность запросов между клетками
const DefaultMaxQueryDepth = 16

// QueryKind различает агрегирующие запросы, защищённого от повторного входа
type QueryKind uint8

const (
	QueryLightValue QueryKind = iota
	QueryLightOpacity
)

type queryKey struct {
	pos  vec.Vec3
	kind QueryKind
}

// Query несёт контекст одного внешнего запроса. Передаётся в поведения, чтобы
// вложенные запросы к той же клетке получали безопасное значение вместо
// бесконечной рекурсии. Не потокобезопасен.
type Query struct {
	active   map[queryKey]struct{}
	depth    int
	maxDepth int
	refused  int
}

// NewQuery создаёт контекст запроса. maxDepth <= 0 означает значение по умолчанию.
func NewQuery(maxDepth int) *Query {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxQueryDepth
	}
	return &Query{
		active:   make(map[queryKey]struct{}),
		maxDepth: maxDepth,
	}
}

// Depth возвращает текущую вложенность
func (q *Query) Depth() int {
	return q.depth
}

// Refused возвращает число отклонённых повторных входов
func (q *Query) Refused() int {
	return q.refused
}

// Active сообщает, выполняется ли сейчас запрос kind для клетки pos
func (q *Query) Active(pos vec.Vec3, kind QueryKind) bool {
	_, ok := q.active[queryKey{pos, kind}]
	return ok
}

func (q *Query) enter(pos vec.Vec3, kind QueryKind) bool {
	key := queryKey{pos, kind}
	if _, busy := q.active[key]; busy || q.depth >= q.maxDepth {
		q.refused++
		return false
	}
	q.active[key] = struct{}{}
	q.depth++
	return true
}

func (q *Query) leave(pos vec.Vec3, kind QueryKind) {
	delete(q.active, queryKey{pos, kind})
	q.depth--
}
