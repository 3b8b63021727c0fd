// Command modkit inspects and round-trips SimData and string table resources.
package main

import (
	"fmt"
	"os"

	"github.com/alexflint/go-arg"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type inspectCmd struct {
	File string `arg:"positional,required" help:"SimData resource file"`
}

type roundtripCmd struct {
	File         string `arg:"positional,required" help:"SimData resource file"`
	Strict       bool   `arg:"--strict" help:"fail when the re-encoded bytes differ, not only when the content does"`
	DropUnparsed bool   `arg:"--drop-unparsed" help:"with --tolerant, re-encode without the instances that could not be decoded"`
}

type hashCmd struct {
	Names []string `arg:"positional,required" help:"names to hash"`
}

type textCmd struct {
	File     string `arg:"positional,required" help:"SimData resource file"`
	Instance string `arg:"-i,--instance" help:"print only this instance"`
}

type stblCmd struct {
	File string `arg:"positional,required" help:"string table resource file"`
}

type args struct {
	Inspect   *inspectCmd   `arg:"subcommand:inspect" help:"summarize schemas and instances"`
	Roundtrip *roundtripCmd `arg:"subcommand:roundtrip" help:"decode, re-encode and compare"`
	Hash      *hashCmd      `arg:"subcommand:hash" help:"print the FNV-32 hash of names"`
	Text      *textCmd      `arg:"subcommand:text" help:"print instances as text nodes"`
	Stbl      *stblCmd      `arg:"subcommand:stbl" help:"list string table entries"`

	Compression string `arg:"-c,--compression,env:MODKIT_COMPRESSION" default:"none" help:"payload compression: none, zlib, zstd, s2, lz4"`
	Recover     bool   `arg:"--recover" help:"accept a bad magic tag or version"`
	Tolerant    bool   `arg:"--tolerant" help:"skip instances with unresolvable pointers"`
	Verbose     bool   `arg:"-v,--verbose,env:MODKIT_VERBOSE" help:"debug logging"`
}

func (args) Description() string {
	return "modkit reads, checks and prints SimData and string table resources"
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	return config.Build()
}

func main() {
	var a args
	p := arg.MustParse(&a)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand")
	}

	logger, err := newLogger(a.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to construct logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(&a, logger, os.Stdout); err != nil {
		logger.Error("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
