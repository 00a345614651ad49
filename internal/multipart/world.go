package multipart

import (
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

// World описывает, что ядру нужно от мира-хозяина.
// Компаньоном клетки называется произвольный объект, который мир хранит рядом с состоянием
// (для клетки-контейнера это сам контейнер).
type World interface {
	State(pos vec.Vec3) block.State
	SetState(pos vec.Vec3, state block.State)
	Companion(pos vec.Vec3) any
	SetCompanion(pos vec.Vec3, companion any)
	// IsRemote возвращает true на неавторитетной (клиентской) стороне
	IsRemote() bool
	SpawnDrops(pos vec.Vec3, drops []block.Stack)
}

// NeighborNotifier реализуется миром, умеющим оповестить соседей клетки без смены её состояния.
// Контейнер вызывает его, когда поменялась часть, а состояние клетки осталось прежним.
type NeighborNotifier interface {
	NotifyNeighbors(pos vec.Vec3)
}

// Actor взаимодействует с клеткой
type Actor struct {
	Name     string
	Creative bool
	Sneaking bool
}

// Flag перечисляет булевы свойства клетки, которые объединяются через "любой"
type Flag uint8

const (
	FlagLadder Flag = iota
	FlagBurning
	FlagFertile
	FlagBeaconBase
	FlagSustainsPlant
	FlagCreatureSpawn
)

var flagNames = map[Flag]string{
	FlagLadder:        "ladder",
	FlagBurning:       "burning",
	FlagFertile:       "fertile",
	FlagBeaconBase:    "beacon_base",
	FlagSustainsPlant: "sustains_plant",
	FlagCreatureSpawn: "creature_spawn",
}

func (f Flag) String() string {
	if name, ok := flagNames[f]; ok {
		return name
	}
	return "unknown"
}

// ParseFlag разбирает имя флага
func ParseFlag(s string) (Flag, bool) {
	for f, name := range flagNames {
		if name == s {
			return f, true
		}
	}
	return 0, false
}

type RenderLayer uint8

const (
	LayerSolid RenderLayer = iota
	LayerCutout
	LayerTranslucent
)
