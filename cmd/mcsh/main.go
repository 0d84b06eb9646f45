package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Fancyflame/mcsh/pkg/ast"
	"github.com/Fancyflame/mcsh/pkg/atoi"
	"github.com/Fancyflame/mcsh/pkg/emit"
	"github.com/Fancyflame/mcsh/pkg/ir"
	"github.com/Fancyflame/mcsh/pkg/lexer"
	"github.com/Fancyflame/mcsh/pkg/mcpack"
	"github.com/Fancyflame/mcsh/pkg/parser"
	"github.com/Fancyflame/mcsh/pkg/simulate"
	"github.com/spf13/cobra"
)

var version = "0.1.0"

// Shared build/simulate flags
var (
	wordWidth uint32
	memSize   uint32
)

// build-only flags
var (
	outDir       string
	withManifest bool
	withMcpack   bool
	packIcon     string
)

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "mcsh",
		Short:         "mcsh compiles a small C-like language to Minecraft Bedrock .mcfunction trees",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.PersistentFlags().Uint32Var(&wordWidth, "word-width", ir.DefaultWordWidth, "registers per memory word")
	rootCmd.PersistentFlags().Uint32Var(&memSize, "mem-size", ir.DefaultMemSize, "memory size in words")

	simulateCmd := &cobra.Command{
		Use:   "simulate <file> <function>",
		Short: "resolve and run an exported function against the in-process simulator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doSimulate(args[0], args[1], out, errOut)
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build <file>",
		Short: "compile a source file to a tree of .mcfunction files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doBuild(cmd, args[0], out, errOut)
		},
	}
	buildCmd.Flags().StringVar(&outDir, "out", "", "output directory (default: the source file's basename, in the current directory)")
	buildCmd.Flags().BoolVar(&withManifest, "manifest", false, "prompt for and write a manifest.json")
	buildCmd.Flags().BoolVar(&withMcpack, "mcpack", false, "archive the output directory into a .mcpack")
	buildCmd.Flags().StringVar(&packIcon, "pack-icon", "", "pack_icon.png to copy into the output directory")

	rootCmd.AddCommand(simulateCmd, buildCmd)
	return rootCmd
}

func doSimulate(filename, fnName string, out, errOut io.Writer) error {
	defs, err := compileToAST(filename)
	if err != nil {
		fmt.Fprintf(errOut, "mcsh: %v\n", err)
		return err
	}

	labelMap, err := atoi.Compile(defs, memSize, wordWidth)
	if err != nil {
		fmt.Fprintf(errOut, "mcsh: resolving %s: %v\n", filename, err)
		return err
	}

	result := simulate.RunExported(labelMap, fnName)
	fmt.Fprint(out, result.Log)
	if result.Err != nil {
		fmt.Fprintf(errOut, "mcsh: simulation error: %v\n", result.Err)
		return result.Err
	}
	fmt.Fprintf(out, "%s() = %d\n", fnName, result.Value)
	return nil
}

func doBuild(cmd *cobra.Command, filename string, out, errOut io.Writer) error {
	defs, err := compileToAST(filename)
	if err != nil {
		fmt.Fprintf(errOut, "mcsh: %v\n", err)
		return err
	}

	labelMap, err := atoi.Compile(defs, memSize, wordWidth)
	if err != nil {
		fmt.Fprintf(errOut, "mcsh: resolving %s: %v\n", filename, err)
		return err
	}

	dir := outDir
	if dir == "" {
		dir = basenameWithoutExt(filename)
	}

	if err := emit.Compile(labelMap, dir); err != nil {
		fmt.Fprintf(errOut, "mcsh: emitting %s: %v\n", dir, err)
		return err
	}
	fmt.Fprintf(errOut, "mcsh: wrote %s\n", dir)

	if packIcon != "" {
		if err := copyFile(packIcon, filepath.Join(dir, "pack_icon.png")); err != nil {
			fmt.Fprintf(errOut, "mcsh: copying pack icon: %v\n", err)
			return err
		}
	}

	if withManifest {
		manifest, err := mcpack.PromptManifest(cmd.InOrStdin(), out)
		if err != nil {
			fmt.Fprintf(errOut, "mcsh: reading manifest answers: %v\n", err)
			return err
		}
		if err := mcpack.WriteManifest(dir, manifest); err != nil {
			fmt.Fprintf(errOut, "mcsh: writing manifest: %v\n", err)
			return err
		}
	}

	if withMcpack {
		archivePath := basenameWithoutExt(filename) + ".mcpack"
		if err := mcpack.Archive(dir, archivePath); err != nil {
			fmt.Fprintf(errOut, "mcsh: archiving %s: %v\n", archivePath, err)
			return err
		}
		if err := os.RemoveAll(dir); err != nil {
			fmt.Fprintf(errOut, "mcsh: removing staging directory %s: %v\n", dir, err)
			return err
		}
		fmt.Fprintf(errOut, "mcsh: wrote %s\n", archivePath)
	}

	return nil
}

func compileToAST(filename string) ([]ast.Definition, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	toks, err := lexer.Tokenize(string(content))
	if err != nil {
		return nil, fmt.Errorf("lexing %s: %w", filename, err)
	}
	defs, err := parser.ParseProgram(toks)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return defs, nil
}

func basenameWithoutExt(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()
	_, err = io.Copy(out, in)
	return err
}
