package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/mathkernel"
	"github.com/wippyai/mathkernel/approx"
	"github.com/wippyai/mathkernel/assemble"
	"github.com/wippyai/mathkernel/config"
	"github.com/wippyai/mathkernel/engine"
	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/kernel"
	"github.com/wippyai/mathkernel/opset"
	"github.com/wippyai/mathkernel/toolchain"
)

type options struct {
	configPath    string
	envFile       string
	toolchain     string
	toolchainPath string
	call          string
	emitWAT       string
	emitWIT       string
	emitWASM      string
	args          []string
	list          bool
	info          bool
	stats         bool
	native        bool
}

func main() {
	var (
		configPath    = flag.String("config", "", "Config file (default: mathkernel.yaml/.yml/.toml in the working directory)")
		envFile       = flag.String("env", ".env", "Env file with MATHKERNEL_* overrides")
		toolchainName = flag.String("toolchain", "", "Toolchain: builtin, external, auto or none")
		toolchainPath = flag.String("toolchain-path", "", "Path to the external wat2wasm executable")
		call          = flag.String("call", "", "Operation to call; remaining arguments are its parameters")
		emitWAT       = flag.String("emit-wat", "", "Write the assembled WAT to a file (- for stdout)")
		emitWIT       = flag.String("emit-wit", "", "Write the WIT interface to a file (- for stdout)")
		emitWASM      = flag.String("emit-wasm", "", "Compile the full module and write it to a file")
		list          = flag.Bool("list", false, "List callable operations and exit")
		info          = flag.Bool("info", false, "Print kernel state after initialization")
		stats         = flag.Bool("stats", false, "Print call statistics before exiting")
		native        = flag.Bool("native", false, "Evaluate with the Go approximation library instead of the sandbox")
		interactive   = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	opts := options{
		configPath:    *configPath,
		envFile:       *envFile,
		toolchain:     *toolchainName,
		toolchainPath: *toolchainPath,
		call:          *call,
		emitWAT:       *emitWAT,
		emitWIT:       *emitWIT,
		emitWASM:      *emitWASM,
		args:          flag.Args(),
		list:          *list,
		info:          *info,
		stats:         *stats,
		native:        *native,
	}

	ctx := context.Background()

	if *interactive {
		if err := runInteractive(ctx, opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup resolves configuration and installs the logger.
func setup(opts options) (*config.Config, *zap.Logger, error) {
	if err := config.LoadEnvFiles(opts.envFile); err != nil {
		return nil, nil, err
	}

	path := opts.configPath
	if path == "" {
		path = config.Find(".")
	}
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, nil, err
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, nil, err
	}
	if opts.toolchain != "" {
		cfg.Toolchain.Name = opts.toolchain
	}
	if opts.toolchainPath != "" {
		cfg.Toolchain.Path = opts.toolchainPath
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := cfg.Logger()
	if err != nil {
		return nil, nil, err
	}
	kernel.SetLogger(log)
	engine.SetLogger(log)
	toolchain.SetLogger(log)
	if cfg.Path != "" {
		log.Debug("config loaded", zap.String("path", cfg.Path))
	}
	return cfg, log, nil
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, log, err := setup(opts)
	if err != nil {
		return err
	}
	defer log.Sync()

	emitted, err := emit(ctx, cfg, opts, stdout)
	if err != nil {
		return err
	}
	if emitted && opts.call == "" && !opts.list && !opts.info {
		return nil
	}

	var (
		provider mathkernel.Provider
		k        *kernel.Kernel
	)
	if opts.native {
		n := approx.NewNative()
		if cfg.Seed != nil {
			n.Generator().SetSeed(*cfg.Seed)
		}
		provider = n
	} else {
		kc, err := cfg.KernelConfig()
		if err != nil {
			return err
		}
		k = kernel.New(&kc)
		if err := k.Init(ctx); err != nil {
			return err
		}
		defer k.Close(ctx)
		provider = k
	}

	if opts.info && k != nil {
		printInfo(stdout, k.Info())
	}

	if opts.list {
		printOps(stdout, provider, terminalWidth(stdout))
		return nil
	}

	if opts.call == "" {
		if k != nil && !opts.info {
			printInfo(stdout, k.Info())
			fmt.Fprintln(stdout, "\nUse -list to see operations and -call to invoke one.")
		}
		return nil
	}

	result, err := callOp(ctx, provider, opts.call, opts.args)
	if err != nil {
		return fmt.Errorf("call %s: %w", opts.call, err)
	}
	fmt.Fprintln(stdout, formatResult(result))

	if opts.stats && k != nil {
		printStats(stdout, k.Stats())
	}
	return nil
}

func emit(ctx context.Context, cfg *config.Config, opts options, stdout io.Writer) (bool, error) {
	if opts.emitWAT == "" && opts.emitWIT == "" && opts.emitWASM == "" {
		return false, nil
	}

	src, err := assemble.Build(opset.All())
	if err != nil {
		return false, err
	}
	if err := writeOutput(opts.emitWAT, []byte(src.WAT), stdout); err != nil {
		return false, err
	}
	if err := writeOutput(opts.emitWIT, []byte(src.WIT), stdout); err != nil {
		return false, err
	}

	if opts.emitWASM != "" {
		kc, err := cfg.KernelConfig()
		if err != nil {
			return false, err
		}
		art, err := toolchain.Build(ctx, kc.Toolchain, src.WAT)
		if err != nil {
			return false, err
		}
		if err := writeOutput(opts.emitWASM, art.Bytes, stdout); err != nil {
			return false, err
		}
	}
	return true, nil
}

func writeOutput(path string, data []byte, stdout io.Writer) error {
	switch path {
	case "":
		return nil
	case "-":
		_, err := stdout.Write(data)
		return err
	default:
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		return nil
	}
}

// callOp parses string arguments against the op's parameter types and calls it.
func callOp(ctx context.Context, p mathkernel.Provider, name string, raw []string) (any, error) {
	op, ok := opset.Lookup(name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseRuntime, "operation", name)
	}
	if len(raw) != len(op.Params) {
		return nil, fmt.Errorf("%s%s: expected %d arguments, got %d", name, strings.TrimPrefix(op.Signature(), "func"), len(op.Params), len(raw))
	}
	args := make([]any, len(raw))
	for i, s := range raw {
		v, err := convertArg(s, op.Params[i].Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", op.Params[i].Name, err)
		}
		args[i] = v
	}
	return p.Call(ctx, name, args...)
}

func convertArg(value string, t wit.Type) (any, error) {
	value = strings.TrimSpace(value)
	switch t.(type) {
	case wit.S32:
		v, err := strconv.ParseInt(value, 10, 32)
		return int32(v), err
	case wit.S64:
		v, err := strconv.ParseInt(value, 10, 64)
		return v, err
	case wit.F64:
		return strconv.ParseFloat(value, 64)
	case wit.Bool:
		return strconv.ParseBool(value)
	default:
		return nil, fmt.Errorf("unsupported parameter type %s", opset.TypeName(t))
	}
}

func formatResult(v any) string {
	switch x := v.(type) {
	case nil:
		return "(no result)"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func printInfo(w io.Writer, info kernel.Info) {
	fmt.Fprintf(w, "Kernel: %s\n", info.ID)
	fmt.Fprintf(w, "State: %s\n", info.State)
	fmt.Fprintf(w, "Module: %s\n", info.Variant)
	if info.Toolchain != "" {
		fmt.Fprintf(w, "Toolchain: %s\n", info.Toolchain)
	}
	fmt.Fprintf(w, "Operations: %d\n", info.Ops)
	fmt.Fprintf(w, "Init time: %s\n", info.InitTime)
}

func printOps(w io.Writer, p mathkernel.Provider, width int) {
	ops := opset.All()
	nameWidth, sigWidth := 0, 0
	for _, op := range ops {
		nameWidth = max(nameWidth, len(op.Name))
		sigWidth = max(sigWidth, len(op.Signature()))
	}
	for _, op := range ops {
		if !p.Has(op.Name) {
			continue
		}
		line := fmt.Sprintf("  %-*s  %-*s  %s", nameWidth, op.Name, sigWidth, op.Signature(), op.Doc)
		if width > 0 && len(line) > width {
			line = line[:width-1] + "…"
		}
		fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func printStats(w io.Writer, stats []kernel.OpStats) {
	fmt.Fprintln(w, "\nCalls:")
	for _, s := range stats {
		fmt.Fprintf(w, "  %-16s calls=%d errors=%d mean=%s\n", s.Name, s.Calls, s.Errors, s.Mean())
	}
}

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}
