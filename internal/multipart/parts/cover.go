package parts

import (
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/physics"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

const CoverType = "cover"

// coverThickness – толщина облицовки в шестнадцатых
const coverThickness = 2

// Material описывает свойства материала облицовки
type Material struct {
	Hardness   float64
	Resistance float64
	Opacity    int
}

// Materials перечисляет известные материалы облицовки
var Materials = map[string]Material{
	"stone":    {Hardness: 1.5, Resistance: 6, Opacity: 250},
	"glass":    {Hardness: 0.3, Resistance: 0.3, Opacity: 0},
	"obsidian": {Hardness: 50, Resistance: 1200, Opacity: 250},
	"bedrock":  {Hardness: -1, Resistance: multipart.InfiniteResistance, Opacity: 255},
}

// CoverState создаёт состояние облицовки грани
func CoverState(face vec.Face, material string) block.State {
	return block.NewState(CoverType, map[string]string{
		"face":     face.String(),
		"material": material,
	})
}

// CoverBehavior закрывает одну грань клетки тонкой плитой
type CoverBehavior struct {
	multipart.BaseBehavior
}

// NewCoverBehavior создаёт поведение облицовки
func NewCoverBehavior() *CoverBehavior {
	return &CoverBehavior{BaseBehavior: multipart.BaseBehavior{BehaviorName: CoverType}}
}

// stateFace возвращает грань из свойства face; по умолчанию низ
func stateFace(s block.State) vec.Face {
	raw, _ := s.Get("face")
	if f, ok := vec.ParseFace(raw); ok {
		return f
	}
	return vec.FaceDown
}

func coverMaterial(s block.State) Material {
	name, _ := s.Get("material")
	if m, ok := Materials[name]; ok {
		return m
	}
	return Materials["stone"]
}

// faceBox строит плиту толщиной depth у грани face.
// inset отступает от остальных граней, чтобы соседние плиты не касались по рёбрам.
func faceBox(face vec.Face, depth, inset float64) physics.Shape {
	lo := [3]float64{inset, inset, inset}
	hi := [3]float64{16 - inset, 16 - inset, 16 - inset}
	axis := face.Axis()
	if face.Positive() {
		lo[axis], hi[axis] = 16-depth, 16
	} else {
		lo[axis], hi[axis] = 0, depth
	}
	return physics.Pixels(lo[0], lo[1], lo[2], hi[0], hi[1], hi[2])
}

func (b *CoverBehavior) SlotFor(state block.State) *slot.Slot {
	return slot.FaceSlot(stateFace(state))
}

func (b *CoverBehavior) Shape(p *multipart.PartInfo) physics.Shape {
	return faceBox(stateFace(p.State()), coverThickness, 0)
}

// OcclusionShape отдаёт плиту без краёв: облицовки соседних граней совместимы
func (b *CoverBehavior) OcclusionShape(p *multipart.PartInfo) physics.Shape {
	return faceBox(stateFace(p.State()), coverThickness, coverThickness)
}

func (b *CoverBehavior) LightOpacity(p *multipart.PartInfo, _ *multipart.Query) int {
	return coverMaterial(p.State()).Opacity
}

func (b *CoverBehavior) Hardness(p *multipart.PartInfo) float64 {
	return coverMaterial(p.State()).Hardness
}

func (b *CoverBehavior) ExplosionResistance(p *multipart.PartInfo) float64 {
	return coverMaterial(p.State()).Resistance
}

func (b *CoverBehavior) FaceShape(p *multipart.PartInfo, face vec.Face) physics.FaceShape {
	if face == stateFace(p.State()) {
		return physics.FaceShapeSolid
	}
	return physics.FaceShapeUndefined
}

// Flag: на напольной облицовке могут появляться существа
func (b *CoverBehavior) Flag(p *multipart.PartInfo, f multipart.Flag) bool {
	return f == multipart.FlagCreatureSpawn && stateFace(p.State()) == vec.FaceDown
}

func (b *CoverBehavior) CanRenderInLayer(p *multipart.PartInfo, layer multipart.RenderLayer) bool {
	name, _ := p.State().Get("material")
	if name == "glass" {
		return layer == multipart.LayerTranslucent
	}
	return layer == multipart.LayerSolid
}

func (b *CoverBehavior) CanPlayerDestroy(p *multipart.PartInfo, _ multipart.Actor) bool {
	return coverMaterial(p.State()).Hardness >= 0
}

func (b *CoverBehavior) Drops(p *multipart.PartInfo) []block.Stack {
	name, _ := p.State().Get("material")
	return []block.Stack{{Item: CoverType + ":" + name, Count: 1}}
}

func (b *CoverBehavior) PickPart(p *multipart.PartInfo, _ *physics.RayHit, _ multipart.Actor) block.Stack {
	return b.Drops(p)[0]
}
