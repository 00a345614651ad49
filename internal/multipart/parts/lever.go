package parts

import (
	"fmt"
	"strconv"

	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

const LeverType = "lever"

const leverPower = 15

// LeverState создаёт состояние рычага на грани
func LeverState(face vec.Face, powered bool) block.State {
	return block.NewState(LeverType, map[string]string{
		"face":    face.String(),
		"powered": strconv.FormatBool(powered),
	})
}

// LeverTile считает переключения рычага
type LeverTile struct {
	Toggles int
}

func (t *LeverTile) Snapshot() map[string]string {
	return map[string]string{"toggles": strconv.Itoa(t.Toggles)}
}

func (t *LeverTile) Restore(data map[string]string) error {
	raw, ok := data["toggles"]
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("toggles: %w", err)
	}
	t.Toggles = n
	return nil
}

// LeverBehavior прикрепляет рычаг к грани клетки
type LeverBehavior struct {
	multipart.BaseBehavior
}

// NewLeverBehavior создаёт поведение рычага
func NewLeverBehavior() *LeverBehavior {
	return &LeverBehavior{BaseBehavior: multipart.BaseBehavior{BehaviorName: LeverType}}
}

func (b *LeverBehavior) SlotFor(state block.State) *slot.Slot {
	return slot.FaceSlot(stateFace(state))
}

func (b *LeverBehavior) CreateTile(multipart.World, vec.Vec3, block.State) multipart.Tile {
	return &LeverTile{}
}

func (b *LeverBehavior) ConvertTile(companion any) multipart.Tile {
	if t, ok := companion.(*LeverTile); ok {
		return t
	}
	return &LeverTile{}
}

// Shape: основание 6x6 пикселей высотой 3 у своей грани
func (b *LeverBehavior) Shape(p *multipart.PartInfo) physics.Shape {
	return faceBox(stateFace(p.State()), 3, 5)
}

func (b *LeverBehavior) WeakPower(p *multipart.PartInfo, _ vec.Face) int {
	if p.State().Bool("powered") {
		return leverPower
	}
	return 0
}

// StrongPower идёт только в клетку, к которой рычаг прикреплён
func (b *LeverBehavior) StrongPower(p *multipart.PartInfo, side vec.Face) int {
	if p.State().Bool("powered") && side.Opposite() == stateFace(p.State()) {
		return leverPower
	}
	return 0
}

func (b *LeverBehavior) CanConnectRedstone(*multipart.PartInfo, vec.Face) bool { return true }

func (b *LeverBehavior) Hardness(*multipart.PartInfo) float64 { return 0.5 }

func (b *LeverBehavior) CanRenderInLayer(_ *multipart.PartInfo, layer multipart.RenderLayer) bool {
	return layer == multipart.LayerCutout
}

// UpdatePostPlacement отваливает рычаг, если опора исчезла
func (b *LeverBehavior) UpdatePostPlacement(p *multipart.PartInfo, face vec.Face, neighbor block.State) block.State {
	if face == stateFace(p.State()) && neighbor.IsAir() {
		return block.Air
	}
	return p.State()
}

// Toggle переключает рычаг и увеличивает счётчик его тайла
func Toggle(p *multipart.PartInfo) error {
	if p.State().Type() != LeverType {
		return fmt.Errorf("%s не является рычагом", p.State())
	}
	if t, ok := p.Tile().(*LeverTile); ok {
		t.Toggles++
	}
	return p.SetState(p.State().With("powered", strconv.FormatBool(!p.State().Bool("powered"))))
}
