package multipart

import (
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// Behavior описывает тип части. Реализации не хранят состояние конкретной
// клетки: всё, что относится к размещению, приходит через PartInfo.
type Behavior interface {
	Name() string
	// SlotFor возвращает слот, который часть занимает, будучи обычной клеткой
	SlotFor(state block.State) *slot.Slot
	CreateTile(w World, pos vec.Vec3, state block.State) Tile
	// ConvertTile переносит компаньон обычной клетки в тайл части
	ConvertTile(companion any) Tile

	Shape(p *PartInfo) physics.Shape
	RayTrace(p *PartInfo, start, end vec.Vec3Float, base *physics.RayHit) *physics.RayHit
	CanCoexist(p *PartInfo, other *PartInfo) bool

	LightValue(p *PartInfo, q *Query) int
	LightOpacity(p *PartInfo, q *Query) int
	WeakPower(p *PartInfo, side vec.Face) int
	StrongPower(p *PartInfo, side vec.Face) int
	CanConnectRedstone(p *PartInfo, side vec.Face) bool
	ComparatorOverride(p *PartInfo) int
	ExplosionResistance(p *PartInfo) float64
	EnchantPowerBonus(p *PartInfo) float64
	Hardness(p *PartInfo) float64
	Drops(p *PartInfo) []block.Stack
	FaceShape(p *PartInfo, face vec.Face) physics.FaceShape
	Flag(p *PartInfo, f Flag) bool
	CanRenderInLayer(p *PartInfo, layer RenderLayer) bool

	NeighborChanged(p *PartInfo, from vec.Vec3)
	// UpdatePostPlacement возвращает новое состояние части; Air удаляет её
	UpdatePostPlacement(p *PartInfo, face vec.Face, neighbor block.State) block.State
	FillWithRain(p *PartInfo)
	CanPlayerDestroy(p *PartInfo, actor Actor) bool
	Harvested(p *PartInfo, actor Actor)
	PickPart(p *PartInfo, hit *physics.RayHit, actor Actor) block.Stack
}

// Collider реализуется частью, чья форма столкновений отличается от Shape
type Collider interface {
	CollisionShape(p *PartInfo) physics.Shape
}

// Occluder реализуется частью, чей объём занятости отличается от Shape
type Occluder interface {
	OcclusionShape(p *PartInfo) physics.Shape
}

// SlotClaimer закрывает слоты помимо своего
type SlotClaimer interface {
	ClaimedSlots(p *PartInfo) []*slot.Slot
}

// Tile хранит изменяемые данные конкретной части
type Tile interface {
	Snapshot() map[string]string
	Restore(data map[string]string) error
}

// Ticker реализуется тайлом, которому нужен вызов каждый тик
type Ticker interface {
	Tick(p *PartInfo)
}

// BaseBehavior даёт нейтральные значения всех методов Behavior.
// Встраивается в реализации, которые переопределяют только нужное.
type BaseBehavior struct {
	BehaviorName string
	OwnSlot      *slot.Slot
}

func (b BaseBehavior) Name() string                                 { return b.BehaviorName }
func (b BaseBehavior) SlotFor(block.State) *slot.Slot               { return b.OwnSlot }
func (b BaseBehavior) CreateTile(World, vec.Vec3, block.State) Tile { return nil }

func (b BaseBehavior) ConvertTile(companion any) Tile {
	if t, ok := companion.(Tile); ok {
		return t
	}
	return nil
}

func (b BaseBehavior) Shape(*PartInfo) physics.Shape { return physics.Empty() }

func (b BaseBehavior) RayTrace(_ *PartInfo, _, _ vec.Vec3Float, base *physics.RayHit) *physics.RayHit {
	return base
}

func (b BaseBehavior) CanCoexist(*PartInfo, *PartInfo) bool                 { return true }
func (b BaseBehavior) LightValue(*PartInfo, *Query) int                     { return 0 }
func (b BaseBehavior) LightOpacity(*PartInfo, *Query) int                   { return 0 }
func (b BaseBehavior) WeakPower(*PartInfo, vec.Face) int                    { return 0 }
func (b BaseBehavior) StrongPower(*PartInfo, vec.Face) int                  { return 0 }
func (b BaseBehavior) CanConnectRedstone(*PartInfo, vec.Face) bool          { return false }
func (b BaseBehavior) ComparatorOverride(*PartInfo) int                     { return 0 }
func (b BaseBehavior) ExplosionResistance(*PartInfo) float64                { return 0 }
func (b BaseBehavior) EnchantPowerBonus(*PartInfo) float64                  { return 0 }
func (b BaseBehavior) Hardness(*PartInfo) float64                           { return 1 }
func (b BaseBehavior) FaceShape(*PartInfo, vec.Face) physics.FaceShape      { return physics.FaceShapeUndefined }
func (b BaseBehavior) Flag(*PartInfo, Flag) bool                            { return false }
func (b BaseBehavior) CanRenderInLayer(_ *PartInfo, layer RenderLayer) bool { return layer == LayerSolid }
func (b BaseBehavior) NeighborChanged(*PartInfo, vec.Vec3)                  {}
func (b BaseBehavior) FillWithRain(*PartInfo)                               {}
func (b BaseBehavior) CanPlayerDestroy(*PartInfo, Actor) bool               { return true }
func (b BaseBehavior) Harvested(*PartInfo, Actor)                           {}

func (b BaseBehavior) Drops(p *PartInfo) []block.Stack {
	return []block.Stack{{Item: p.State().Type(), Count: 1}}
}

func (b BaseBehavior) UpdatePostPlacement(p *PartInfo, _ vec.Face, _ block.State) block.State {
	return p.State()
}

func (b BaseBehavior) PickPart(p *PartInfo, _ *physics.RayHit, _ Actor) block.Stack {
	return block.Stack{Item: p.State().Type(), Count: 1}
}
