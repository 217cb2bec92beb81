package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jwebster45206/orchard-engine/pkg/catalog"
	"github.com/jwebster45206/orchard-engine/pkg/save"
	"github.com/jwebster45206/orchard-engine/pkg/world"
)

const usage = `Usage:
  %[1]s catalog <catalog.json|catalog.yaml>
  %[1]s snapshot [-catalog <file>] <save.json|save.yaml>
`

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	v := &Validator{}
	var err error
	switch os.Args[1] {
	case "catalog":
		err = v.validateCatalogFile(os.Args[2])
	case "snapshot":
		fs := flag.NewFlagSet("snapshot", flag.ExitOnError)
		catalogPath := fs.String("catalog", "", "catalog the save was made with (default: embedded)")
		_ = fs.Parse(os.Args[2:])
		if fs.NArg() != 1 {
			fmt.Fprintf(os.Stderr, usage, os.Args[0])
			os.Exit(1)
		}
		err = v.validateSnapshotFile(fs.Arg(0), *catalogPath)
	default:
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(1)
	}

	for _, w := range v.warnings {
		fmt.Println("warning:", w)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("File is valid!")
}

// Validator collects problems across one file so they are all reported at
// once.
type Validator struct {
	errors   []string
	warnings []string
}

func (v *Validator) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *Validator) result(filename string) error {
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *Validator) validateCatalogFile(filename string) error {
	fmt.Printf("Validating catalog %s...\n", filename)
	v.errors, v.warnings = nil, nil

	c, err := catalog.LoadFile(filename)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		for _, line := range strings.Split(err.Error(), "\n") {
			v.errorf("%s", line)
		}
	}
	v.warnings = append(v.warnings, c.Warnings()...)
	return v.result(filename)
}

// validateSnapshotFile decodes a save and loads it into a world built from
// the catalog, reporting every record the load would drop.
func (v *Validator) validateSnapshotFile(filename, catalogPath string) error {
	fmt.Printf("Validating snapshot %s...\n", filename)
	v.errors, v.warnings = nil, nil

	cat := catalog.Default()
	if catalogPath != "" {
		var err error
		if cat, err = catalog.LoadFile(catalogPath); err != nil {
			return err
		}
	}

	codec, err := save.CodecFor(filepath.Ext(filename))
	if err != nil {
		return err
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	snap, err := codec.Unmarshal(data)
	if err != nil {
		return err
	}

	v.validateSnapshot(snap, cat)
	return v.result(filename)
}

func (v *Validator) validateSnapshot(snap *save.Snapshot, cat *catalog.Catalog) {
	for i, t := range snap.Trees {
		if _, ok := cat.Tree(t.TreeID); !ok {
			v.errorf("trees[%d]: unknown tree %q", i, t.TreeID)
		}
		if _, ok := cat.Plot(t.PlotID); t.PlotID != "" && !ok {
			v.errorf("trees[%d]: unknown plot %q", i, t.PlotID)
		}
	}
	for i, q := range snap.Quest.Quests {
		if _, ok := cat.Quest(q.QuestID); !ok {
			v.errorf("quest.quests[%d]: unknown quest %q", i, q.QuestID)
		}
	}
	for i, q := range snap.Quest.Queues {
		if _, ok := cat.Queue(q.Difficulty); !ok {
			v.errorf("quest.queues[%d]: unknown queue %q", i, q.Difficulty)
		}
	}
	if step := snap.Tutorial.CurrentStep; step != "" && !step.Valid() {
		v.warnings = append(v.warnings, fmt.Sprintf("tutorial step %q is unknown; the tutorial will restart", step))
	}

	w := world.New(world.Options{Catalog: cat})
	report := w.Import(snap)
	if report.SkippedTrees > 0 {
		v.warnings = append(v.warnings, fmt.Sprintf("%d trees would be skipped on load", report.SkippedTrees))
	}
	fmt.Printf("Loads %d trees, %d quests, %d queues\n", report.Trees, report.Quests, report.Queues)
}
