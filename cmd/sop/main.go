package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/taurusgroup/sum-of-products/internal/simulation"
	"github.com/taurusgroup/sum-of-products/pkg/math/group"
	"github.com/taurusgroup/sum-of-products/pkg/math/sample"
	"github.com/taurusgroup/sum-of-products/pkg/node"
	"github.com/taurusgroup/sum-of-products/pkg/pool"
	"github.com/taurusgroup/sum-of-products/pkg/topology"
	"github.com/taurusgroup/sum-of-products/protocols/sop"
)

type options struct {
	p, g     uint64
	x        string
	lambda   string
	seed     string
	mode     string
	scenario string
	save     string
	verbose  bool
}

func main() {
	var opts options
	flag.Uint64Var(&opts.p, "p", 982451653, "Prime modulus")
	flag.Uint64Var(&opts.g, "g", 2, "Generator")
	flag.StringVar(&opts.x, "x", "", "Comma separated inputs x0,x1,x2,x3 (random if empty)")
	flag.StringVar(&opts.lambda, "lambda", "", "Comma separated blinding exponents (random if empty)")
	flag.StringVar(&opts.seed, "seed", "", "Seed for the random inputs and exponents")
	flag.StringVar(&opts.mode, "mode", "local", "Execution mode: local, parallel or rounds")
	flag.StringVar(&opts.scenario, "scenario", "", "Load the scenario from file")
	flag.StringVar(&opts.save, "save", "", "Save the scenario to file")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose output")
	flag.Parse()

	level := zerolog.InfoLevel
	if opts.verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		Level(level).With().Timestamp().Logger()

	if err := run(opts, log); err != nil {
		var mismatch *simulation.MismatchError
		if errors.As(err, &mismatch) {
			log.Error().
				Str("expected", mismatch.Expected.Big().String()).
				Str("actual", mismatch.Actual.Big().String()).
				Msg("verification failed")
		} else {
			log.Error().Err(err).Msg("evaluation failed")
		}
		os.Exit(1)
	}
}

func run(opts options, log zerolog.Logger) error {
	s, err := loadScenario(opts)
	if err != nil {
		return err
	}
	if opts.save != "" {
		data, err := s.MarshalBinary()
		if err != nil {
			return err
		}
		if err = os.WriteFile(opts.save, data, 0o644); err != nil {
			return err
		}
		log.Info().Str("file", opts.save).Msg("scenario saved")
	}

	log.Info().Str("group", s.Group.Name()).Str("mode", opts.mode).Msg("evaluating")

	var (
		result *sop.Result
		o      *sop.Orchestrator
		nodes  []*node.Node
	)
	switch opts.mode {
	case "local":
		o, result, err = simulation.RunLocal(s, nil, log)
	case "parallel":
		pl := pool.NewPool(0)
		defer pl.TearDown()
		o, result, err = simulation.RunLocal(s, pl, log)
	case "rounds":
		result, nodes, err = simulation.RunRounds(s, []byte(opts.seed), nil, log)
	default:
		return fmt.Errorf("unknown mode %q", opts.mode)
	}
	if o != nil {
		nodes = o.Nodes()
	}
	simulation.Report(os.Stdout, s, result, nodes)
	if err != nil {
		return err
	}
	log.Info().Str("z", result.Z.Big().String()).Msg("verification passed")
	return nil
}

func loadScenario(opts options) (*simulation.Scenario, error) {
	if opts.scenario != "" {
		data, err := os.ReadFile(opts.scenario)
		if err != nil {
			return nil, err
		}
		s := new(simulation.Scenario)
		if err = s.UnmarshalBinary(data); err != nil {
			return nil, fmt.Errorf("%s: %w", opts.scenario, err)
		}
		return s, nil
	}

	grp, err := group.FromUint64(opts.p, opts.g)
	if err != nil {
		return nil, err
	}
	if opts.x == "" && opts.lambda == "" {
		seed := []byte(opts.seed)
		if opts.seed == "" {
			seed = []byte(strconv.FormatInt(time.Now().UnixNano(), 10))
		}
		return simulation.Random(sample.NewSeededReader(seed), grp, topology.Default()), nil
	}
	x, err := parseList(opts.x)
	if err != nil {
		return nil, fmt.Errorf("-x: %w", err)
	}
	lambdas, err := parseList(opts.lambda)
	if err != nil {
		return nil, fmt.Errorf("-lambda: %w", err)
	}
	return simulation.Literal(grp, x, lambdas)
}

func parseList(s string) ([]uint64, error) {
	var values []uint64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseUint(field, 10, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}
