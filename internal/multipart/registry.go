package multipart

import "github.com/annel0/mmo-multipart/internal/world/block"

// TypeRegistry сопоставляет тип состояния и поведение части.
// Заполняется из init() пакетов с частями, затем только читается.
type TypeRegistry struct {
	behaviors map[string]Behavior
}

// NewTypeRegistry создаёт пустой реестр
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{behaviors: make(map[string]Behavior)}
}

// Register добавляет поведение в реестр под его именем
func (r *TypeRegistry) Register(b Behavior) {
	r.behaviors[b.Name()] = b
}

// Get возвращает поведение по имени типа
func (r *TypeRegistry) Get(name string) (Behavior, bool) {
	b, exists := r.behaviors[name]
	return b, exists
}

// Resolve возвращает поведение для состояния клетки
func (r *TypeRegistry) Resolve(state block.State) (Behavior, bool) {
	if state.IsAir() || state.Type() == block.ContainerType {
		return nil, false
	}
	return r.Get(state.Type())
}

// Names возвращает имена зарегистрированных типов
func (r *TypeRegistry) Names() []string {
	names := make([]string, 0, len(r.behaviors))
	for name := range r.behaviors {
		names = append(names, name)
	}
	return names
}

// Types используется процессом по умолчанию
var Types = NewTypeRegistry()

// Register добавляет поведение в реестр процесса
func Register(b Behavior) {
	Types.Register(b)
}
