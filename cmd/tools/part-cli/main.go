package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/annel0/mmo-multipart/internal/app"
	"github.com/annel0/mmo-multipart/internal/logging"
	"github.com/annel0/mmo-multipart/internal/multipart"
	"github.com/annel0/mmo-multipart/internal/multipart/parts"
	"github.com/annel0/mmo-multipart/internal/multipart/slot"
	"github.com/annel0/mmo-multipart/internal/storage"
	"github.com/annel0/mmo-multipart/internal/vec"
	"github.com/annel0/mmo-multipart/internal/world"
	"github.com/annel0/mmo-multipart/internal/world/block"
)

const usage = `part-cli – работа с клетками-контейнерами в BadgerDB

Команды (-cmd):
  place     поставить часть (-pos -slot -state)
  add       добавить часть в занятую клетку (-pos -slot -state [-dry])
  remove    удалить часть (-pos -slot)
  toggle    переключить рычаг (-pos -slot)
  inspect   показать части клетки (-pos)
  query     агрегированные свойства клетки (-pos)
  raytrace  какую часть задевает луч (-pos -from -to)
  break     сломать часть под лучом (-pos -from -to [-creative])
  list      все сохранённые клетки
`

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	data     string
	cmd      string
	pos      string
	slot     string
	state    string
	from     string
	to       string
	dry      bool
	creative bool
}

func parseFlags(args []string, out io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("part-cli", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}
	fs.StringVar(&o.data, "data", os.Getenv("MULTIPART_DATA_DIR"), "Каталог данных (по умолчанию $MULTIPART_DATA_DIR)")
	fs.StringVar(&o.cmd, "cmd", "inspect", "Команда")
	fs.StringVar(&o.pos, "pos", "", "Клетка x,y,z")
	fs.StringVar(&o.slot, "slot", "", "Имя слота (up, center, edge_down_north…)")
	fs.StringVar(&o.state, "state", "", "Состояние части, например cover[face=up,material=stone]")
	fs.StringVar(&o.from, "from", "", "Начало луча x,y,z")
	fs.StringVar(&o.to, "to", "", "Конец луча x,y,z")
	fs.BoolVar(&o.dry, "dry", false, "Только проверить возможность добавления")
	fs.BoolVar(&o.creative, "creative", false, "Игрок в творческом режиме")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if o.data == "" {
		o.data = "data"
	}
	return &o, nil
}

// session держит мир, восстановленный из хранилища, и клетки, изменённые командой
type session struct {
	out     io.Writer
	store   *storage.ContainerStore
	world   *world.World
	manager *multipart.Manager
	dirty   map[vec.Vec3]struct{}
}

func run(args []string, out io.Writer) error {
	o, err := parseFlags(args, out)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	store, err := storage.NewContainerStore(o.data)
	if err != nil {
		return err
	}
	defer store.Close()

	s := &session{
		out:   out,
		store: store,
		world: world.NewWorld(false),
		dirty: make(map[vec.Vec3]struct{}),
	}
	opts := multipart.DefaultOptions()
	opts.Logger = logging.NewWriterLogger("part-cli", io.Discard, logging.ERROR)
	opts.Notifier = multipart.NotifierFunc(func(_ multipart.World, pos vec.Vec3) {
		s.dirty[pos] = struct{}{}
	})
	s.manager = multipart.NewManager(opts)

	ctx := context.Background()
	if err := store.ForEach(ctx, func(snap multipart.Snapshot) error {
		_, err := s.manager.Restore(s.world, snap)
		return err
	}); err != nil {
		return fmt.Errorf("загрузка клеток: %w", err)
	}
	app.AttachNeighbors(s.world, s.manager)

	if err := s.exec(o); err != nil {
		return err
	}
	return s.persist(ctx)
}

func (s *session) exec(o *options) error {
	if o.cmd == "list" {
		return s.list()
	}

	pos, err := vec.ParseVec3(o.pos)
	if err != nil {
		return fmt.Errorf("-pos: %w", err)
	}

	switch o.cmd {
	case "place", "add":
		sl, err := s.slot(o.slot)
		if err != nil {
			return err
		}
		state, err := block.ParseState(o.state)
		if err != nil {
			return fmt.Errorf("-state: %w", err)
		}
		if o.cmd == "place" {
			err = s.manager.PlacePart(s.world, pos, sl, state)
		} else {
			err = s.manager.TryAddPart(s.world, pos, sl, state, o.dry)
		}
		if err != nil {
			return fmt.Errorf("%s %s в %s: %w", o.cmd, state, sl, err)
		}
		if o.dry {
			fmt.Fprintf(s.out, "✅ %s помещается в слот %s клетки %s\n", state, sl, pos)
			return nil
		}
		fmt.Fprintf(s.out, "✅ %s → %s/%s\n", state, pos, sl)

	case "remove":
		sl, err := s.slot(o.slot)
		if err != nil {
			return err
		}
		if !s.manager.RemovePart(s.world, pos, sl) {
			return fmt.Errorf("в слоте %s клетки %s нет части", sl, pos)
		}
		fmt.Fprintf(s.out, "🗑  %s/%s\n", pos, sl)

	case "toggle":
		sl, err := s.slot(o.slot)
		if err != nil {
			return err
		}
		p, ok := s.manager.GetInfo(s.world, pos, sl)
		if !ok {
			return fmt.Errorf("в слоте %s клетки %s нет части", sl, pos)
		}
		if err := parts.Toggle(p); err != nil {
			return err
		}
		fmt.Fprintf(s.out, "🔀 %s\n", s.manager.GetPartState(s.world, pos, sl))

	case "inspect":
		return s.inspect(pos)

	case "query":
		return s.query(pos)

	case "raytrace", "break":
		from, err := vec.ParseVec3Float(o.from)
		if err != nil {
			return fmt.Errorf("-from: %w", err)
		}
		to, err := vec.ParseVec3Float(o.to)
		if err != nil {
			return fmt.Errorf("-to: %w", err)
		}
		if o.cmd == "break" {
			return s.breakPart(pos, from, to, o.creative)
		}
		hit := s.manager.RayTrace(s.world, pos, from, to)
		if hit == nil {
			fmt.Fprintln(s.out, "промах")
			return nil
		}
		sl, _ := s.manager.Slots().ByID(slot.ID(hit.SubHit))
		fmt.Fprintf(s.out, "попадание: слот %s, грань %s, расстояние %.3f\n", sl, hit.Face, hit.Distance)

	default:
		return fmt.Errorf("неизвестная команда %q", o.cmd)
	}
	return nil
}

func (s *session) slot(name string) (*slot.Slot, error) {
	sl, ok := s.manager.Slots().ByName(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return nil, fmt.Errorf("-slot %q: %w", name, multipart.ErrUnknownSlot)
	}
	return sl, nil
}

func (s *session) inspect(pos vec.Vec3) error {
	fmt.Fprintf(s.out, "%s: %s\n", pos, s.world.State(pos))
	c, ok := s.manager.View(s.world, pos)
	if !ok {
		return nil
	}
	for _, p := range c.Parts() {
		line := fmt.Sprintf("  [%d] %-16s %s", p.SlotID(), p.Slot().Name(), p.State())
		if t := p.Tile(); t != nil {
			line += fmt.Sprintf(" tile=%v", t.Snapshot())
		}
		fmt.Fprintln(s.out, line)
	}
	return nil
}

func (s *session) query(pos vec.Vec3) error {
	c, ok := s.manager.View(s.world, pos)
	if !ok {
		return fmt.Errorf("в клетке %s нет частей", pos)
	}
	bounds, _ := multipart.Shape(c).Bounds()
	fmt.Fprintf(s.out, "bounds:      %v – %v\n", bounds.Min, bounds.Max)
	fmt.Fprintf(s.out, "light:       %d\n", s.manager.LightValue(s.world, pos, nil))
	fmt.Fprintf(s.out, "opacity:     %d\n", s.manager.LightOpacity(s.world, pos, nil))
	fmt.Fprintf(s.out, "comparator:  %d\n", multipart.ComparatorOverride(c))
	fmt.Fprintf(s.out, "resistance:  %g\n", multipart.ExplosionResistance(c))
	for _, f := range vec.Faces {
		fmt.Fprintf(s.out, "%-6s weak=%d strong=%d redstone=%v shape=%v\n", f, multipart.WeakPower(c, f),
			multipart.StrongPower(c, f), multipart.CanConnectRedstone(c, f), multipart.FaceShape(c, f))
	}
	var flags []string
	for f := multipart.FlagLadder; f <= multipart.FlagCreatureSpawn; f++ {
		if multipart.HasFlag(c, f) {
			flags = append(flags, f.String())
		}
	}
	fmt.Fprintf(s.out, "flags:       %s\n", strings.Join(flags, ","))
	var drops []string
	for _, st := range multipart.Drops(c) {
		drops = append(drops, st.String())
	}
	fmt.Fprintf(s.out, "drops:       %s\n", strings.Join(drops, ","))
	return nil
}

func (s *session) breakPart(pos vec.Vec3, from, to vec.Vec3Float, creative bool) error {
	actor := multipart.Actor{Name: "part-cli", Creative: creative}
	hardness := s.manager.PlayerRelativeHardness(s.world, pos, actor, from, to)
	if !s.manager.Break(s.world, pos, actor, from, to) {
		return fmt.Errorf("часть в %s не сломана", pos)
	}
	fmt.Fprintf(s.out, "💥 %s (скорость ломания %.4f)\n", pos, hardness)
	for _, d := range s.world.TakeDrops() {
		for _, st := range d.Stacks {
			fmt.Fprintf(s.out, "  дроп %s\n", st)
		}
	}
	return nil
}

func (s *session) list() error {
	return s.store.ForEach(context.Background(), func(snap multipart.Snapshot) error {
		names := make([]string, 0, len(snap.Parts))
		for _, ps := range snap.Parts {
			names = append(names, ps.Slot+"="+ps.State.String())
		}
		fmt.Fprintf(s.out, "%s %s\n", snap.Pos, strings.Join(names, " "))
		return nil
	})
}

// persist сохраняет все изменённые командой клетки
func (s *session) persist(ctx context.Context) error {
	if len(s.dirty) == 0 {
		return nil
	}
	positions := make([]vec.Vec3, 0, len(s.dirty))
	for pos := range s.dirty {
		positions = append(positions, pos)
	}
	sort.Slice(positions, func(i, j int) bool { return storage.Key(positions[i]) < storage.Key(positions[j]) })

	snaps := make([]multipart.Snapshot, 0, len(positions))
	for _, pos := range positions {
		snap, _ := s.manager.SnapshotAt(s.world, pos)
		snaps = append(snaps, snap)
	}
	return s.store.BatchSave(ctx, snaps)
}
