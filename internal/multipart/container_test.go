package multipart

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

func TestAddToPlainCellConvertsAndCollapses(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{X: 1, Y: 64, Z: 1}
	tile := f.placePlain(pos, vec.FaceDown)

	require.True(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))

	c, ok := f.mgr.GetContainer(f.world, pos)
	require.True(t, ok, "клетка должна стать контейнером")
	parts := c.Parts()
	require.Len(t, parts, 2)
	assert.Same(t, slot.Down, parts[0].Slot(), "части упорядочены по идентификатору слота")
	assert.Same(t, slot.Up, parts[1].Slot())
	assert.Same(t, tile, parts[0].Tile(), "тайл обычной клетки переносится в часть")
	assert.True(t, f.world.State(pos).Bool("ticking"))

	err := f.mgr.TryAddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false)
	assert.True(t, errors.Is(err, ErrSlotOccupied), "повторное добавление в занятый слот: %v", err)
	assert.False(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))

	assert.True(t, f.mgr.RemovePart(f.world, pos, slot.Up))
	assert.Len(t, c.Parts(), 1)
	assert.False(t, f.mgr.RemovePart(f.world, pos, slot.Up), "слот уже пуст")

	assert.True(t, f.mgr.RemovePart(f.world, pos, slot.Down))
	assert.True(t, f.world.State(pos).IsAir(), "пустой контейнер превращается в воздух")
	assert.Nil(t, f.world.Companion(pos))
	assert.Equal(t, []vec.Vec3{pos, pos, pos}, f.changes)
}

func TestAddPartRejections(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{}

	err := f.mgr.TryAddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false)
	assert.True(t, errors.Is(err, ErrUnresolvableState), "в воздух AddPart не добавляет: %v", err)

	f.placePlain(pos, vec.FaceDown)

	err = f.mgr.TryAddPart(f.world, pos, slot.North, panel(vec.FaceNorth), false)
	assert.True(t, errors.Is(err, ErrOccupancyConflict), "плиты низа и севера пересекаются: %v", err)

	err = f.mgr.TryAddPart(f.world, pos, slot.Up, block.NewState("unknown", nil), false)
	assert.True(t, errors.Is(err, ErrUnresolvableState))

	err = f.mgr.TryAddPart(f.world, pos, slot.New("loose", nil), panel(vec.FaceUp), false)
	assert.True(t, errors.Is(err, ErrUnknownSlot))

	assert.Equal(t, panel(vec.FaceDown), f.world.State(pos), "отказ ничего не меняет")
	assert.Empty(t, f.changes)
}

func TestSimulateDoesNotMutate(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{Y: 5}
	tile := f.placePlain(pos, vec.FaceDown)

	for i := 0; i < 2; i++ {
		assert.True(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), true))
	}
	assert.Equal(t, panel(vec.FaceDown), f.world.State(pos))
	assert.Same(t, tile, f.world.Companion(pos))
	assert.Empty(t, f.changes)
}

func TestRemoteWorldOnlyValidates(t *testing.T) {
	f := newFixture(true)
	pos := vec.Vec3{}
	f.placePlain(pos, vec.FaceDown)

	assert.True(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))
	assert.Equal(t, panel(vec.FaceDown), f.world.State(pos))
	assert.False(t, f.mgr.RemovePart(f.world, pos, slot.Down))
	assert.Empty(t, f.changes)
}

func TestOccupancyIsSymmetric(t *testing.T) {
	f := newFixture(false)
	wide := &shapeBehavior{
		BaseBehavior: BaseBehavior{BehaviorName: "wide", OwnSlot: slot.Center},
		shape:        physics.Box(0.25, 0.25, 0.25, 0.75, 0.75, 0.75),
		claims:       []*slot.Slot{slot.East},
	}
	picky := &shapeBehavior{
		BaseBehavior: BaseBehavior{BehaviorName: "picky", OwnSlot: slot.West},
		shape:        physics.Box(0, 0.4, 0.4, 0.1, 0.6, 0.6),
		veto:         true,
	}
	f.types.Register(wide)
	f.types.Register(picky)
	wideState := block.NewState("wide", nil)
	pickyState := block.NewState("picky", nil)

	// Заявленный слот East занят для панели востока
	posA := vec.Vec3{X: 10}
	require.NoError(t, f.mgr.PlacePart(f.world, posA, slot.Center, wideState))
	err := f.mgr.TryAddPart(f.world, posA, slot.East, panel(vec.FaceEast), false)
	assert.True(t, errors.Is(err, ErrOccupancyConflict), "%v", err)

	posB := vec.Vec3{X: 20}
	f.placePlain(posB, vec.FaceEast)
	err = f.mgr.TryAddPart(f.world, posB, slot.Center, wideState, false)
	assert.True(t, errors.Is(err, ErrOccupancyConflict), "обратный порядок даёт тот же ответ: %v", err)

	// Запрет соседства действует в обе стороны
	posC := vec.Vec3{X: 30}
	require.NoError(t, f.mgr.PlacePart(f.world, posC, slot.West, pickyState))
	err = f.mgr.TryAddPart(f.world, posC, slot.Up, panel(vec.FaceUp), false)
	assert.True(t, errors.Is(err, ErrCoexistenceVeto), "%v", err)

	posD := vec.Vec3{X: 40}
	f.placePlain(posD, vec.FaceUp)
	err = f.mgr.TryAddPart(f.world, posD, slot.West, pickyState, false)
	assert.True(t, errors.Is(err, ErrCoexistenceVeto), "%v", err)
}

func TestKeepEmptyContainer(t *testing.T) {
	f := newFixture(false)
	opts := DefaultOptions()
	opts.Types = f.types
	opts.CollapseEmpty = false
	opts.Logger = quietLogger()
	mgr := NewManager(opts)

	pos := vec.Vec3{Z: 3}
	f.placePlain(pos, vec.FaceDown)
	require.True(t, mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))
	require.True(t, mgr.RemovePart(f.world, pos, slot.Up))
	require.True(t, mgr.RemovePart(f.world, pos, slot.Down))

	c, ok := mgr.GetContainer(f.world, pos)
	require.True(t, ok, "контейнер остаётся в клетке")
	assert.Zero(t, c.Len())

	err := mgr.TryAddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false)
	assert.True(t, errors.Is(err, ErrPlacementRejected), "%v", err)

	// PlacePart заполняет оставшийся пустой контейнер, клетка не теряется
	require.NoError(t, mgr.PlacePart(f.world, pos, slot.Up, panel(vec.FaceUp)))
	again, ok := mgr.GetContainer(f.world, pos)
	require.True(t, ok)
	assert.Same(t, c, again)
	assert.Equal(t, 1, again.Len())
	assert.Equal(t, panel(vec.FaceUp), mgr.GetPartState(f.world, pos, slot.Up))
	assert.True(t, mgr.AddPart(f.world, pos, slot.Down, panel(vec.FaceDown), false))
}

func TestPlacePart(t *testing.T) {
	f := newFixture(false)

	plain := vec.Vec3{X: 1}
	require.NoError(t, f.mgr.PlacePart(f.world, plain, slot.Down, panel(vec.FaceDown)))
	assert.Equal(t, panel(vec.FaceDown), f.world.State(plain), "свой слот – обычная клетка")
	assert.IsType(t, &counterTile{}, f.world.Companion(plain))

	// Тот же тип в чужом слоте ставится контейнером
	wrapped := vec.Vec3{X: 2}
	require.NoError(t, f.mgr.PlacePart(f.world, wrapped, slot.Center, panel(vec.FaceDown)))
	c, ok := f.mgr.GetContainer(f.world, wrapped)
	require.True(t, ok)
	_, ok = c.Get(slot.Center)
	assert.True(t, ok)

	// В занятую клетку – через AddPart
	require.NoError(t, f.mgr.PlacePart(f.world, plain, slot.Up, panel(vec.FaceUp)))
	assert.Equal(t, block.ContainerType, f.world.State(plain).Type())
}

func TestSetPartState(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{}
	f.placePlain(pos, vec.FaceDown)
	require.True(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))

	p, ok := f.mgr.GetInfo(f.world, pos, slot.Up)
	require.True(t, ok)
	next := panel(vec.FaceUp).With("color", "red")
	require.NoError(t, p.SetState(next))
	assert.Equal(t, next, f.mgr.GetPartState(f.world, pos, slot.Up))
	assert.Equal(t, panel(vec.FaceUp), p.State(), "прежнее значение PartInfo не меняется")

	require.NoError(t, p.SetState(block.Air))
	assert.Equal(t, block.Air, f.mgr.GetPartState(f.world, pos, slot.Up))
}

func TestImplicitView(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{Y: 1}
	tile := f.placePlain(pos, vec.FaceDown)

	v, ok := f.mgr.View(f.world, pos)
	require.True(t, ok)
	_, isContainer := v.(*TileContainer)
	assert.False(t, isContainer, "обычная клетка не превращается в контейнер при чтении")

	require.Len(t, v.Parts(), 1)
	_, ok = v.Get(slot.Up)
	assert.False(t, ok)
	p, ok := v.Get(slot.Down)
	require.True(t, ok)

	assert.Zero(t, f.panel.convert, "тайл создаётся лениво")
	assert.Same(t, tile, p.Tile())
	assert.Same(t, tile, p.Tile())
	assert.Equal(t, 1, f.panel.convert, "тайл вида запоминается")

	assert.True(t, v.CanAdd(slot.Up, panel(vec.FaceUp), nil))
	assert.Equal(t, panel(vec.FaceDown), f.world.State(pos))

	require.NoError(t, v.Add(slot.Up, panel(vec.FaceUp), nil))
	_, ok = f.mgr.GetContainer(f.world, pos)
	assert.True(t, ok)

	other := vec.Vec3{Y: 2}
	f.placePlain(other, vec.FaceUp)
	v, ok = f.mgr.View(f.world, other)
	require.True(t, ok)
	assert.True(t, errors.Is(v.Remove(slot.Down), ErrSlotEmpty))
	require.NoError(t, v.Remove(slot.Up))
	assert.True(t, f.world.State(other).IsAir())
	assert.Nil(t, f.world.Companion(other))
}

func TestTickAndSnapshotRestore(t *testing.T) {
	f := newFixture(false)
	pos := vec.Vec3{X: -4, Y: 9, Z: 2}
	tile := f.placePlain(pos, vec.FaceDown)
	require.True(t, f.mgr.AddPart(f.world, pos, slot.Up, panel(vec.FaceUp), false))

	f.mgr.Tick(f.world, pos)
	f.mgr.Tick(f.world, pos)
	assert.Equal(t, 2, tile.ticks)

	snap, ok := f.mgr.SnapshotAt(f.world, pos)
	require.True(t, ok)
	require.Len(t, snap.Parts, 2)
	assert.Equal(t, "down", snap.Parts[0].Slot)
	assert.Equal(t, "2", snap.Parts[0].Tile["ticks"])

	g := newFixture(false)
	c, err := g.mgr.Restore(g.world, snap)
	require.NoError(t, err)
	require.Len(t, c.Parts(), 2)
	assert.Equal(t, 2, c.Parts()[0].Tile().(*counterTile).ticks)
	assert.Equal(t, snap, Snap(c))

	_, err = g.mgr.Restore(g.world, Snapshot{Pos: pos})
	require.NoError(t, err)
	assert.True(t, g.world.State(pos).IsAir())
}

func TestRestoreRejectsConflicts(t *testing.T) {
	f := newFixture(false)
	snap := Snapshot{
		Pos: vec.Vec3{},
		Parts: []PartSnapshot{
			{Slot: "down", State: panel(vec.FaceDown)},
			{Slot: "north", State: panel(vec.FaceNorth)},
		},
	}
	_, err := f.mgr.Restore(f.world, snap)
	assert.True(t, errors.Is(err, ErrOccupancyConflict))
	assert.True(t, f.world.State(vec.Vec3{}).IsAir())

	snap.Parts[1].Slot = "nowhere"
	_, err = f.mgr.Restore(f.world, snap)
	assert.True(t, errors.Is(err, ErrUnknownSlot))
}

func TestPartLookupsOnPlainAndForeignCells(t *testing.T) {
	f := newFixture(false)

	plain := vec.Vec3{X: 4}
	f.placePlain(plain, vec.FaceDown)
	beh, ok := f.mgr.GetPartBehavior(f.world, plain, slot.Down)
	require.True(t, ok)
	assert.Same(t, f.panel, beh)
	_, ok = f.mgr.GetPartBehavior(f.world, plain, slot.Up)
	assert.False(t, ok, "обычная клетка отвечает только за свой слот")
	assert.Equal(t, block.Air, f.mgr.GetPartState(f.world, plain, slot.Up))

	stone := vec.Vec3{X: 5}
	f.world.SetState(stone, block.NewState("stone", nil))
	assert.Equal(t, block.NewState("stone", nil), f.mgr.GetPartState(f.world, stone, slot.Up),
		"клетка без частей отдаёт своё состояние")
	_, ok = f.mgr.GetPartBehavior(f.world, stone, slot.Up)
	assert.False(t, ok)

	assert.Equal(t, block.Air, f.mgr.GetPartState(f.world, vec.Vec3{X: 6}, slot.Center))
}
