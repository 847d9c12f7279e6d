package main

import (
	"context"
	"deliveroo-agent/internal/agent"
	"deliveroo-agent/internal/config"
	"deliveroo-agent/internal/domain"
	"deliveroo-agent/internal/network"
	"deliveroo-agent/internal/replay"
	"deliveroo-agent/internal/sim"
	"deliveroo-agent/pkg/logger"
	"deliveroo-agent/pkg/mapgen"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var errAgentCount = errors.New("sim supports one agent or one pair")

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Run agents against the local simulator",
	Long: `Run one agent, or a cooperating pair, on a local map.

Maps use the ASCII legend: '#' wall, '.' floor, 'S' spawn, 'D' delivery.
Without --map the built-in bottleneck map is used.`,
	RunE: runSim,
}

func init() {
	rootCmd.AddCommand(simCmd)

	simCmd.Flags().String("map", "", "map file")
	simCmd.Flags().Int("agents", 2, "number of agents (1 or 2)")
	simCmd.Flags().Int("ticks", 200, "ticks to simulate")
	simCmd.Flags().Int("items", 4, "free items kept on spawn tiles")
	simCmd.Flags().Float64("reward", 20, "reward of a spawned item")
	simCmd.Flags().Int64("seed", 1, "item spawn seed")
	simCmd.Flags().String("record", "", "write a binary decision log to this file")
}

func runSim(cmd *cobra.Command, _ []string) error {
	mapFile, _ := cmd.Flags().GetString("map")
	count, _ := cmd.Flags().GetInt("agents")
	ticks, _ := cmd.Flags().GetInt("ticks")
	items, _ := cmd.Flags().GetInt("items")
	reward, _ := cmd.Flags().GetFloat64("reward")
	seed, _ := cmd.Flags().GetInt64("seed")
	record, _ := cmd.Flags().GetString("record")

	if count < 1 || count > 2 {
		return fmt.Errorf("%d agents: %w", count, errAgentCount)
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var types [][]domain.TileType
	if mapFile != "" {
		types, err = mapgen.LoadTypes(mapFile)
	} else {
		types, err = mapgen.ParseTypes(mapgen.Bottleneck)
	}
	if err != nil {
		return fmt.Errorf("failed to load map: %w", err)
	}

	world, err := sim.NewWorld(types, sim.Settings{
		ObservationRange: cfg.ObservationRange,
		DecayInterval:    cfg.DecayInterval,
		MovementDuration: cfg.MovementDuration,
	}, nil)
	if err != nil {
		return err
	}

	session := sim.NewSession(world)
	defer session.Close()

	starts := startTiles(world.Grid(), count)
	if len(starts) < count {
		return fmt.Errorf("map has no room for %d agents", count)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	for i := 0; i < count; i++ {
		agentCfg := *cfg
		agentCfg.AgentID = strconv.Itoa(i + 1)
		agentCfg.Cooperative = count == 2
		if err := spawnAgent(ctx, session, agentCfg, starts[i]); err != nil {
			return err
		}
	}

	rng := rand.New(rand.NewSource(seed))
	session.BeforeTick = func(int) { world.SpawnItems(rng, items, reward) }

	journal := &replay.Log{Seed: seed, Timestamp: time.Now().Unix()}
	session.OnDecision = func(agentID string, d agent.Decision) {
		if d.Acted {
			journal.Add(d.Tick, agentID, d.Action, d.OK)
		}
	}

	logger.Log.WithFields(logrus.Fields{
		"agents": count,
		"ticks":  ticks,
		"map":    coalesce(mapFile, "bottleneck"),
	}).Info("simulation started")

	if err := session.Run(ctx, ticks); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	total := 0.0
	for id, score := range session.Scores() {
		total += score
		logger.Log.WithFields(logrus.Fields{"agent": id, "score": score}).Info("agent score")
	}
	logger.Log.WithFields(logrus.Fields{
		"ticks": session.Ticks(),
		"total": total,
	}).Info("simulation finished")

	if record != "" {
		if err := journal.Save(record); err != nil {
			return fmt.Errorf("failed to save decision log: %w", err)
		}
		logger.Log.WithFields(logrus.Fields{
			"file":    record,
			"records": len(journal.Records),
		}).Info("decision log saved")
	}
	return nil
}

// spawnAgent подключает кооперативного агента к релею, если задан relay_url,
// иначе к шине сессии
func spawnAgent(ctx context.Context, s *sim.Session, cfg config.Config, at domain.Position) error {
	if !cfg.Cooperative || cfg.RelayURL == "" {
		_, err := s.Spawn(cfg, at)
		return err
	}
	client, err := network.Dial(ctx, cfg.RelayURL, cfg.AgentID)
	if err != nil {
		return err
	}
	if _, err := s.SpawnWithPeer(cfg, at, client); err != nil {
		_ = client.Close()
		return err
	}
	go func() {
		<-ctx.Done()
		_ = client.Close()
	}()
	return nil
}

// startTiles - стартовые клетки: первый агент у спавнов, второй у доставок
func startTiles(g *domain.Grid, count int) []domain.Position {
	var out []domain.Position
	if len(g.Spawns) > 0 {
		out = append(out, g.Spawns[0])
	}
	if count > 1 && len(g.Deliveries) > 0 {
		d := g.Deliveries[len(g.Deliveries)-1]
		if len(out) == 0 || out[0] != d {
			out = append(out, d)
		}
	}
	for _, p := range g.ReachableTiles() {
		if len(out) >= count {
			break
		}
		if len(out) == 0 || out[0] != p {
			out = append(out, p)
		}
	}
	return out
}

func coalesce(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
