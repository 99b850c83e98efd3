// SPDX-FileCopyrightText: © 2025 DSLab - Fondazione Bruno Kessler
//
// SPDX-License-Identifier: Apache-2.0

// Command fsreg groups the files of a directory into file sets and registers them.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/config"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/fileset"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/metadata"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/services/register"
	"github.com/scc-digitalhub/fileset-register-sdk/sdk/utils"
	"github.com/spf13/pflag"
)

type options struct {
	dir        string
	strategy   string
	organize   string
	capacityMB int64
	plan       string
	lookup     string
	dataset    string
	stage      bool
	dryRun     bool
	env        string
	result     string
	sweep      bool
}

func parseFlags() options {
	var o options
	pflag.StringVarP(&o.dir, "dir", "d", "", "base directory to register (required)")
	pflag.StringVarP(&o.strategy, "strategy", "s", "top", "set assignment: all, top or dirs")
	pflag.StringVar(&o.organize, "organize", "flatten", "staging layout: flatten or archive")
	pflag.Int64Var(&o.capacityMB, "capacity", 0, "split sets larger than this many MB (0 disables)")
	pflag.StringVar(&o.plan, "plan", "", "YAML/JSON registration plan")
	pflag.StringVar(&o.lookup, "lookup", "", "YAML/JSON file with datasets, samples and schemas (default: query the remote API)")
	pflag.StringVar(&o.dataset, "dataset", "", "dataset id for sets the plan leaves without one")
	pflag.BoolVar(&o.stage, "stage", true, "stage sets before upload")
	pflag.BoolVar(&o.dryRun, "dry-run", false, "print the preview and exit")
	pflag.StringVarP(&o.env, "env", "e", "", "configuration environment")
	pflag.StringVar(&o.result, "result", "", "write the batch result as JSON to this file")
	pflag.BoolVar(&o.sweep, "cleanup", false, "remove staging folders of sets that are no longer pending")
	pflag.Parse()
	return o
}

func main() {
	_ = godotenv.Load()

	o := parseFlags()
	if o.dir == "" {
		pflag.Usage()
		os.Exit(2)
	}
	if err := run(o); err != nil {
		var ve *fileset.ValidationError
		if errors.As(err, &ve) {
			for _, m := range ve.Messages {
				utils.Errorf("%s", m)
			}
		}
		utils.Errorf("%v", err)
		os.Exit(1)
	}
}

func run(o options) error {
	var envs []string
	if o.env != "" {
		envs = append(envs, o.env)
	}
	if err := utils.RegisterIniCfgWithViper(envs...); err != nil {
		return err
	}
	conf := utils.LoadConfig()

	m, err := fileset.NewManager(conf.Staging)
	if err != nil {
		return err
	}
	sets, err := assign(m, o)
	if err != nil {
		return err
	}
	utils.Infof("%d file sets from %s", len(sets), o.dir)

	if o.plan != "" {
		plan, err := fileset.LoadPlan(o.plan)
		if err != nil {
			return err
		}
		if err := m.ApplyPlan(plan); err != nil {
			return err
		}
	}
	if o.dataset != "" {
		for _, s := range m.FileSets() {
			if s.DatasetID == "" {
				s.DatasetID = o.dataset
				if err := m.UpdateFileSet(s); err != nil {
					return err
				}
			}
		}
	}
	if o.capacityMB > 0 {
		for _, s := range m.FileSets() {
			if _, err := m.SplitFileSet(s.ID, o.capacityMB*1024*1024); err != nil {
				return err
			}
		}
	}
	if _, err := m.ResolveArchiveConflicts(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	sets = m.FileSets()
	fmt.Print(register.Preview(sets))
	if o.dryRun {
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lookup register.MetadataLookup
	if o.lookup != "" {
		if lookup, err = register.LoadStaticLookup(o.lookup); err != nil {
			return err
		}
	} else if lookup, err = metadata.NewMetadataService(ctx, conf); err != nil {
		return err
	}
	opts := []register.Option{register.WithLookup(lookup)}

	svc, err := register.NewRegisterService(ctx, conf, opts...)
	if err != nil {
		return err
	}

	bar := utils.NewProgressBar(os.Stderr)
	h := svc.Start(context.Background(), register.BatchRequest{
		Sets:    sets,
		Manager: m,
		Stage:   o.stage,
		Sink:    &barSink{bar: bar},
		FileProgress: &config.ProgressHook{
			OnProgress: bar.Bytes,
		},
	})
	go func() {
		select {
		case <-ctx.Done():
			utils.Warnf("interrupt received, stopping after the current file")
			h.Cancel()
		case <-h.Done():
		}
	}()

	res, err := h.Wait()
	bar.Done()
	if err != nil {
		return err
	}
	report(res)

	if o.result != "" {
		if err := res.Export(o.result); err != nil {
			return err
		}
	}
	if o.sweep {
		var live []string
		for _, s := range m.FileSets() {
			live = append(live, s.UUID)
		}
		removed, err := svc.Staging().CleanupOrphans(live)
		if err != nil {
			return err
		}
		utils.Infof("removed %d staging folders", len(removed))
	}
	if res.ErrorCount > 0 {
		return fmt.Errorf("%d of %d file sets failed", res.ErrorCount, res.TotalCount)
	}
	return nil
}

func assign(m *fileset.Manager, o options) ([]*fileset.FileSet, error) {
	if _, err := m.BuildTree(o.dir); err != nil {
		return nil, err
	}
	organize, err := fileset.ParseOrganizeMethod(o.organize)
	if err != nil {
		return nil, err
	}

	var sets []*fileset.FileSet
	switch o.strategy {
	case "all":
		sets, err = m.AutoAssignAllAsOne()
	case "top":
		sets, err = m.AutoAssignByTopLevelDirs()
	case "dirs":
		sets, err = m.AutoAssignAllDirectories()
	default:
		return nil, fmt.Errorf("unknown strategy %q", o.strategy)
	}
	if err != nil {
		return nil, err
	}
	for _, s := range sets {
		s.Organize = organize
		if err := m.UpdateFileSet(s); err != nil {
			return nil, err
		}
	}
	return sets, nil
}

type barSink struct {
	bar *utils.ProgressBar
}

func (b *barSink) OnProgress(percent int, message string) { b.bar.Update(percent, message) }

func (b *barSink) OnSetResult(name string, ok bool, detail string) {
	if ok {
		utils.Debugf("%s registered as %s", name, detail)
	}
}

func (b *barSink) OnBatchComplete(*register.BatchRegisterResult) {}

func report(res *register.BatchRegisterResult) {
	fmt.Printf("registered %d/%d file sets (%.1f%%) in %s\n",
		res.SuccessCount, res.TotalCount, res.SuccessRate(), res.Duration().Round(time.Millisecond))
	for _, e := range res.Errors {
		fmt.Printf("  FAILED %s: %s\n", e.Name, e.Message)
	}
	if res.Cancelled {
		fmt.Printf("  cancelled, not attempted: %v\n", res.NotAttempted)
	}
}
