// Command ironmarch loads a scenario, runs the simulation for a fixed
// number of ticks (or until no entity holds an issued MoveOrder), and
// optionally writes a save file. --scenario and --prefabs are required;
// every other flag has a default.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ironmarch/engine/components"
	"github.com/ironmarch/engine/config"
	"github.com/ironmarch/engine/ecs"
	"github.com/ironmarch/engine/ironlog"
	"github.com/ironmarch/engine/nav"
	"github.com/ironmarch/engine/save"
	"github.com/ironmarch/engine/scenario"
	"github.com/ironmarch/engine/systems"
)

type runFlags struct {
	scenarioPath string
	prefabDir    string
	savePath     string
	loadSavePath string
	ticks        int
	untilDry     bool
	tickRate     float32
	moveSpeed    float32
	gridWidth    int
	gridHeight   int
	cellSize     float32
	seed         int64
	verbose      bool
	issueMove    bool
	moveX        float32
	moveZ        float32
	startBattle  bool
	battleX      float32
	battleZ      float32
}

func main() {
	flags := &runFlags{}
	root := &cobra.Command{
		Use:   "ironmarch",
		Short: "Run the ironmarch real-time-strategy simulation core",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(flags)
		},
	}

	root.Flags().StringVar(&flags.scenarioPath, "scenario", "", "path to a scenario JSON file (required)")
	root.Flags().StringVar(&flags.prefabDir, "prefabs", "", "directory of prefab JSON files (required)")
	root.Flags().StringVar(&flags.savePath, "save", "", "path to write a save file after the run")
	root.Flags().StringVar(&flags.loadSavePath, "load-save", "", "path to a save file to echo camera state from")
	root.Flags().IntVar(&flags.ticks, "ticks", 600, "number of ticks to run (ignored if --until-dry is set)")
	root.Flags().BoolVar(&flags.untilDry, "until-dry", false, "run until no entity holds an issued MoveOrder, instead of a fixed tick count")
	root.Flags().Float32Var(&flags.tickRate, "tick-rate", 60, "simulation ticks per second")
	root.Flags().Float32Var(&flags.moveSpeed, "move-speed", 3.5, "uniform ground speed in meters/second")
	root.Flags().IntVar(&flags.gridWidth, "grid-width", 128, "navigation grid width in cells")
	root.Flags().IntVar(&flags.gridHeight, "grid-height", 128, "navigation grid height in cells")
	root.Flags().Float32Var(&flags.cellSize, "cell-size", 1.0, "navigation grid cell size in meters")
	root.Flags().Int64Var(&flags.seed, "seed", 0, "combat RNG seed (0 picks one from the current time)")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	root.Flags().BoolVar(&flags.issueMove, "issue-move", false, "dispatch a one-time group move order to every Selected unit before the run starts")
	root.Flags().Float32Var(&flags.moveX, "move-x", 0, "world X coordinate of the --issue-move order")
	root.Flags().Float32Var(&flags.moveZ, "move-z", 0, "world Z coordinate of the --issue-move order")
	root.Flags().BoolVar(&flags.startBattle, "start-battle", false, "begin the charge toward --battle-x/--battle-z before the run starts")
	root.Flags().Float32Var(&flags.battleX, "battle-x", 0, "world X coordinate of the battle's click point")
	root.Flags().Float32Var(&flags.battleZ, "battle-z", 0, "world Z coordinate of the battle's click point")

	if err := root.MarkFlagRequired("scenario"); err != nil {
		logrus.Fatal(err)
	}
	if err := root.MarkFlagRequired("prefabs"); err != nil {
		logrus.Fatal(err)
	}

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("run failed")
		os.Exit(1)
	}
}

func run(flags *runFlags) error {
	if flags.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	ironlog.Logger = logrus.StandardLogger()

	seed := flags.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := ecs.NewWorld()
	pm := ecs.NewPrefabManager()
	cfg := config.Default()
	cfg.TickRate = flags.tickRate
	cfg.SpatialCellSize = flags.cellSize

	if err := loadPrefabs(flags.prefabDir, pm); err != nil {
		return fmt.Errorf("loading prefabs: %w", err)
	}

	scenarioData, err := os.ReadFile(flags.scenarioPath)
	if err != nil {
		return fmt.Errorf("reading scenario: %w", err)
	}
	scen, err := scenario.SpawnFromFile(scenarioData, w, pm, &cfg)
	if err != nil {
		return fmt.Errorf("loading scenario: %w", err)
	}
	logrus.WithFields(logrus.Fields{"scenario": scen.Name}).Info("scenario loaded")

	grid := nav.NewGrid(flags.gridWidth, flags.gridHeight, flags.cellSize, 0, 0)
	nav.BuildFromObstacles(w, grid)

	spatial := systems.NewSpatialIndex(cfg.SpatialCellSize)
	movement := systems.NewMovement(w, cfg, flags.moveSpeed)
	steering := systems.NewSteering(grid, movement.Tracker())
	avoidance := systems.NewLocalAvoidance(spatial, cfg)
	combat := systems.NewCombat(spatial, cfg, uint64(seed))
	command := systems.NewCommand(grid)

	if flags.issueMove {
		command.SetPendingMove(flags.moveX, flags.moveZ)
	}
	if flags.startBattle {
		combat.StartBattle(flags.battleX, flags.battleZ)
	}

	dt := float32(1.0 / float64(flags.tickRate))
	for tick := 0; flags.untilDry || tick < flags.ticks; tick++ {
		command.Tick(w)
		steering.Tick(w)
		systems.Rebuild(w, spatial)
		avoidance.Tick(w, dt)
		movement.Tick(dt)
		if err := combat.Tick(w, dt); err != nil {
			return fmt.Errorf("combat tick %d: %w", tick, err)
		}

		if flags.untilDry && !anyMoveOrderPending(w) {
			logrus.WithField("tick", tick).Info("simulation quiesced")
			break
		}
	}

	if flags.savePath != "" {
		if err := writeSave(flags); err != nil {
			return fmt.Errorf("writing save: %w", err)
		}
	}
	return nil
}

func loadPrefabs(dir string, pm *ecs.PrefabManager) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			logrus.WithError(err).WithField("file", path).Warn("skipping unreadable prefab file")
			continue
		}
		if _, err := scenario.LoadPrefab(data, nil, pm); err != nil {
			logrus.WithError(err).WithField("file", path).Warn("skipping malformed prefab file")
			continue
		}
	}
	return nil
}

func anyMoveOrderPending(w *ecs.World) bool {
	q := ecs.NewQuery()
	node := q.And(components.MoveOrderC)
	cur := w.NewCursor(node)
	for cur.Next() {
		order := components.MoveOrderC.GetFromCursor(cur)
		if order.Issued {
			return true
		}
	}
	return false
}

func writeSave(flags *runFlags) error {
	var f save.File
	if flags.loadSavePath != "" {
		data, err := os.ReadFile(flags.loadSavePath)
		if err != nil {
			return err
		}
		loaded, err := save.Load(data)
		if err != nil {
			return err
		}
		f = *loaded
	}
	data, err := save.Marshal(&f)
	if err != nil {
		return err
	}
	return os.WriteFile(flags.savePath, append(data, '\n'), 0o644)
}
