package multipart

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// Container хранит набор частей одной клетки. Реализуется установленным
// контейнером (TileContainer) и видом обычной клетки как контейнера из одной части.
type Container interface {
	World() World
	Pos() vec.Vec3
	Get(s *slot.Slot) (*PartInfo, bool)
	// Parts возвращает части в порядке идентификаторов слотов
	Parts() []*PartInfo
	CanAdd(s *slot.Slot, state block.State, tile Tile) bool
	Add(s *slot.Slot, state block.State, tile Tile) error
	Remove(s *slot.Slot) error
	SetPartState(s *slot.Slot, state block.State) error
}

// TileContainer хранится в мире как компаньон клетки.
// Отсоединённый контейнер ещё не записан в мир: он получается при
// преобразовании обычной клетки и устанавливается первым успешным Add.
type TileContainer struct {
	mgr      *Manager
	world    World
	pos      vec.Vec3
	parts    map[*slot.Slot]*PartInfo
	detached bool
}

func newTileContainer(m *Manager, w World, pos vec.Vec3, detached bool) *TileContainer {
	return &TileContainer{
		mgr:      m,
		world:    w,
		pos:      pos,
		parts:    make(map[*slot.Slot]*PartInfo),
		detached: detached,
	}
}

func (c *TileContainer) World() World   { return c.world }
func (c *TileContainer) Pos() vec.Vec3  { return c.pos }
func (c *TileContainer) Detached() bool { return c.detached }
func (c *TileContainer) Len() int       { return len(c.parts) }

// Get возвращает часть в слоте
func (c *TileContainer) Get(s *slot.Slot) (*PartInfo, bool) {
	p, ok := c.parts[s]
	return p, ok
}

// Parts возвращает части, упорядоченные по идентификатору слота
func (c *TileContainer) Parts() []*PartInfo {
	out := make([]*PartInfo, 0, len(c.parts))
	for _, p := range c.parts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].slotID < out[j].slotID })
	return out
}

// CanAdd проверяет, можно ли добавить часть, ничего не меняя
func (c *TileContainer) CanAdd(s *slot.Slot, state block.State, tile Tile) bool {
	_, err := c.candidate(s, state, tile)
	return err == nil
}

// candidate строит PartInfo кандидата и проверяет его против существующих частей
func (c *TileContainer) candidate(s *slot.Slot, state block.State, tile Tile) (*PartInfo, error) {
	id, ok := c.mgr.slots.ID(s)
	if !ok {
		return nil, fmt.Errorf("слот %s: %w", s, ErrUnknownSlot)
	}
	if _, occupied := c.parts[s]; occupied {
		return nil, fmt.Errorf("слот %s в %s: %w", s, c.pos, ErrSlotOccupied)
	}
	beh, ok := c.mgr.types.Resolve(state)
	if !ok {
		return nil, fmt.Errorf("%s: %w", state, ErrUnresolvableState)
	}
	p := &PartInfo{
		world:     c.world,
		pos:       c.pos,
		slot:      s,
		slotID:    id,
		state:     state,
		behavior:  beh,
		tile:      tile,
		container: c,
	}
	if err := checkOccupancy(c.Parts(), p); err != nil {
		return nil, err
	}
	return p, nil
}

// Add добавляет часть. Отсоединённый контейнер при этом записывается в мир.
func (c *TileContainer) Add(s *slot.Slot, state block.State, tile Tile) error {
	if c.world.IsRemote() {
		return ErrRemoteWorld
	}
	p, err := c.candidate(s, state, tile)
	if err != nil {
		return err
	}

	c.parts[s] = p
	if c.detached {
		c.detached = false
		c.world.SetCompanion(c.pos, c)
		c.mgr.metrics.conversion()
	}
	c.syncState()
	c.mgr.notifier.PartsChanged(c.world, c.pos)
	return nil
}

// insert кладёт уже проверенную часть без уведомлений
func (c *TileContainer) insert(p *PartInfo) {
	p.container = c
	c.parts[p.slot] = p
}

// Remove удаляет часть. Опустевший контейнер по политике превращается в воздух.
func (c *TileContainer) Remove(s *slot.Slot) error {
	if c.world.IsRemote() {
		return ErrRemoteWorld
	}
	if _, ok := c.parts[s]; !ok {
		return fmt.Errorf("слот %s в %s: %w", s, c.pos, ErrSlotEmpty)
	}
	delete(c.parts, s)
	if c.detached {
		return nil
	}
	c.mgr.metrics.removal()

	if len(c.parts) == 0 && c.mgr.collapseEmpty {
		c.world.SetState(c.pos, block.Air)
		c.world.SetCompanion(c.pos, nil)
		c.detached = true
	} else {
		c.syncState()
	}
	c.mgr.notifier.PartsChanged(c.world, c.pos)
	return nil
}

// SetPartState заменяет состояние части значением. Air удаляет часть.
func (c *TileContainer) SetPartState(s *slot.Slot, state block.State) error {
	if state.IsAir() {
		return c.Remove(s)
	}
	if c.world.IsRemote() {
		return ErrRemoteWorld
	}
	p, ok := c.parts[s]
	if !ok {
		return fmt.Errorf("слот %s в %s: %w", s, c.pos, ErrSlotEmpty)
	}
	beh := p.behavior
	if state.Type() != p.state.Type() {
		if beh, ok = c.mgr.types.Resolve(state); !ok {
			return fmt.Errorf("%s: %w", state, ErrUnresolvableState)
		}
	}

	next := *p
	next.state = state
	next.behavior = beh
	c.parts[s] = &next
	if c.detached {
		return nil
	}
	c.syncState()
	c.mgr.notifier.PartsChanged(c.world, c.pos)
	return nil
}

// State возвращает состояние клетки, соответствующее содержимому контейнера
func (c *TileContainer) State() block.State {
	ticking := false
	for _, p := range c.parts {
		if _, ok := p.tile.(Ticker); ok {
			ticking = true
			break
		}
	}
	return block.NewState(block.ContainerType, map[string]string{
		"ticking": strconv.FormatBool(ticking),
	})
}

func (c *TileContainer) syncState() {
	if c.detached {
		return
	}
	if next := c.State(); c.world.State(c.pos) != next {
		c.world.SetState(c.pos, next)
		return
	}
	if n, ok := c.world.(NeighborNotifier); ok {
		n.NotifyNeighbors(c.pos)
	}
}
