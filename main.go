package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/k0kubun/pp"
	"github.com/urfave/cli"

	"github.com/kaelhart/cardsat/internal/dimacs"
	"github.com/kaelhart/cardsat/internal/sat"
	"github.com/kaelhart/cardsat/parsers"
)

func solverOptions(c *cli.Context) sat.Options {
	opts := sat.DefaultOptions
	if v := c.Int64("max-conflicts"); v >= 0 {
		opts.MaxConflicts = v
	}
	if v := c.Int64("conflict-budget"); v >= 0 {
		opts.ConflictBudget = v
	}
	if v := c.Int64("propagation-budget"); v >= 0 {
		opts.PropagationBudget = v
	}
	if v := c.Duration("timeout"); v > 0 {
		opts.Timeout = v
	}
	if c.Bool("no-luby") {
		opts.LubyRestarts = false
	}
	if c.Bool("verbose") {
		opts.Verbosity = 1
	}
	return opts
}

func printStats(s *sat.Solver, elapsed time.Duration) {
	fmt.Printf("c time (sec): %f\n", elapsed.Seconds())
	fmt.Printf("c conflicts:  %d (%.2f /sec)\n", s.TotalConflicts, float64(s.TotalConflicts)/elapsed.Seconds())
	fmt.Printf("c restarts:   %d\n", s.TotalRestarts)
	fmt.Printf("c learnts:    %d\n", s.NumLearnts())
}

func printModel(s *sat.Solver) {
	fmt.Print("v ")
	for i, b := range s.Model() {
		if b {
			fmt.Printf("%d ", i+1)
		} else {
			fmt.Printf("%d ", -(i + 1))
		}
	}
	fmt.Println("0")
}

func installInterruptHandler(s *sat.Solver) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		fmt.Println("c interrupted")
		s.Interrupt()
	}()
}

func solveAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: cardsat solve <file.cnf>", 3)
	}
	filename := c.Args().Get(0)

	instance, err := dimacs.ParseDIMACS(filename)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("could not parse instance: %s", err), 3)
	}

	s := sat.NewSolver(solverOptions(c))
	if err := dimacs.Instantiate(s, instance); err != nil {
		return cli.NewExitError(fmt.Sprintf("could not load instance: %s", err), 3)
	}
	installInterruptHandler(s)

	fmt.Printf("c variables: %d\n", instance.Variables)
	fmt.Printf("c clauses:   %d\n", len(instance.Clauses))
	fmt.Printf("c leqs:      %d\n", len(instance.Leqs))

	if c.Bool("debug") {
		pp.Println(s.ClauseLiterals())
		pp.Println(s.LeqLiterals())
	}

	if c.Bool("verbose") {
		s.PrintSearchHeader()
	}

	start := time.Now()
	status := s.Solve(nil)
	elapsed := time.Since(start)

	if c.Bool("verbose") {
		s.PrintSearchStats()
	}
	printStats(s, elapsed)

	switch status {
	case sat.True:
		fmt.Println("s SATISFIABLE")
		printModel(s)
		os.Exit(10)
	case sat.False:
		fmt.Println("s UNSATISFIABLE")
		os.Exit(20)
	default:
		fmt.Println("s UNKNOWN")
		os.Exit(0)
	}
	return nil
}

func generatePigeonholeAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.NewExitError("usage: cardsat generate pigeonhole <n>", 3)
	}
	n := c.Args().Get(0)
	nPigeons, err := parsePositiveInt(n)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("invalid pigeon count %q: %s", n, err), 3)
	}
	writePigeonhole(os.Stdout, nPigeons)
	return nil
}

// writePigeonhole emits an n-pigeons-into-(n-1)-holes instance: for each
// hole j, a LEQ "at most one pigeon" constraint with a trivially-true
// destination literal, and for each pigeon i a clause requiring it to
// occupy at least one of the n-1 holes. This always decides UNSAT.
func writePigeonhole(w *os.File, nPigeons int) {
	nHoles := nPigeons - 1
	if nHoles < 1 {
		nHoles = 1
	}
	varID := func(i, j int) int { return i*nHoles + j + 1 }
	nVars := nPigeons*nHoles + 1
	trueVar := nVars // last variable is forced true via its own unit clause

	nClauses := nPigeons + nHoles
	fmt.Fprintf(w, "c pigeonhole: %d pigeons, %d holes\n", nPigeons, nHoles)
	fmt.Fprintf(w, "p cnf %d %d\n", nVars, nClauses+1)
	fmt.Fprintf(w, "%d 0\n", trueVar)

	for j := 0; j < nHoles; j++ {
		for i := 0; i < nPigeons; i++ {
			fmt.Fprintf(w, "%d ", varID(i, j))
		}
		fmt.Fprintf(w, "<=1 #%d 0\n", trueVar)
	}
	for i := 0; i < nPigeons; i++ {
		for j := 0; j < nHoles; j++ {
			fmt.Fprintf(w, "%d ", varID(i, j))
		}
		fmt.Fprint(w, "0\n")
	}
}

func parsePositiveInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	if err != nil {
		return 0, err
	}
	if n < 2 {
		return 0, fmt.Errorf("must be at least 2")
	}
	return n, nil
}

func verifyAction(c *cli.Context) error {
	if c.NArg() != 2 {
		return cli.NewExitError("usage: cardsat verify <file.cnf> <model>", 3)
	}
	instanceFile := c.Args().Get(0)
	modelFile := c.Args().Get(1)

	instance, err := dimacs.ParseDIMACS(instanceFile)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("could not parse instance: %s", err), 3)
	}
	models, err := parsers.ReadModels(modelFile)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("could not parse model: %s", err), 3)
	}
	if len(models) != 1 {
		return cli.NewExitError("expected exactly one model", 3)
	}
	model := models[0]

	if !verifyModel(instance, model) {
		fmt.Println("s INVALID")
		os.Exit(1)
	}
	fmt.Println("s VALID")
	return nil
}

func verifyModel(instance *dimacs.Instance, model []bool) bool {
	val := func(v int) bool {
		if v < 0 {
			return !model[-v-1]
		}
		return model[v-1]
	}
	for _, clause := range instance.Clauses {
		satisfied := false
		for _, v := range clause {
			if val(v) {
				satisfied = true
				break
			}
		}
		if !satisfied {
			return false
		}
	}
	for _, lc := range instance.Leqs {
		nTrue := 0
		for _, v := range lc.Lits {
			if val(v) {
				nTrue++
			}
		}
		leq := nTrue <= lc.Bound
		if lc.Geq {
			leq = nTrue >= lc.Bound
		}
		if leq != val(lc.Dst) {
			return false
		}
	}
	return true
}

func main() {
	app := cli.NewApp()
	app.Name = "cardsat"
	app.Usage = "a CDCL SAT solver with reified cardinality constraints"

	commonFlags := []cli.Flag{
		cli.Int64Flag{Name: "max-conflicts", Value: -1, Usage: "maximum number of conflicts (-1 = no limit)"},
		cli.Int64Flag{Name: "conflict-budget", Value: -1, Usage: "per-call conflict budget (-1 = no limit)"},
		cli.Int64Flag{Name: "propagation-budget", Value: -1, Usage: "per-call propagation budget (-1 = no limit)"},
		cli.DurationFlag{Name: "timeout", Usage: "wall-clock timeout (0 = no limit)"},
		cli.BoolFlag{Name: "no-luby", Usage: "use geometric restarts instead of Luby"},
		cli.BoolFlag{Name: "verbose"},
		cli.BoolFlag{Name: "debug", Usage: "pretty-print the loaded clause/LEQ database before solving"},
	}

	app.Commands = []cli.Command{
		{
			Name:   "solve",
			Usage:  "solve a DIMACS CNF (+ cardinality extension) instance",
			Flags:  commonFlags,
			Action: solveAction,
		},
		{
			Name:  "generate",
			Usage: "emit a generated instance to stdout",
			Subcommands: []cli.Command{
				{
					Name:   "pigeonhole",
					Usage:  "emit an n-pigeons-into-(n-1)-holes instance",
					Action: generatePigeonholeAction,
				},
			},
		},
		{
			Name:   "verify",
			Usage:  "check a model against an instance's clauses and cardinality constraints",
			Action: verifyAction,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
