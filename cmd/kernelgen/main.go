// Command kernelgen regenerates the embedded fallback module.
//
//	go run ./cmd/kernelgen -o fallback/binary_gen.go
//	go run ./cmd/kernelgen -check -o fallback/binary_gen.go
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"go/format"
	"os"

	"github.com/wippyai/mathkernel/fallback"
)

func main() {
	var (
		out   = flag.String("o", "binary_gen.go", "Output Go file")
		pkg   = flag.String("pkg", "fallback", "Package name of the generated file")
		check = flag.Bool("check", false, "Exit non-zero if the output file is out of date instead of writing it")
	)
	flag.Parse()

	if err := run(*out, *pkg, *check); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(out, pkg string, check bool) error {
	bin, names, err := fallback.Derive(context.Background())
	if err != nil {
		return fmt.Errorf("derive: %w", err)
	}

	src, err := render(pkg, bin, names)
	if err != nil {
		return err
	}

	if check {
		existing, err := os.ReadFile(out)
		if err != nil {
			return err
		}
		if !bytes.Equal(existing, src) {
			return fmt.Errorf("%s is stale; run go generate ./fallback", out)
		}
		return nil
	}

	if err := os.WriteFile(out, src, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s: %d bytes, %d ops\n", out, len(bin), len(names))
	return nil
}

func render(pkg string, bin []byte, names []string) ([]byte, error) {
	var b bytes.Buffer
	b.WriteString("// Code generated by kernelgen. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", pkg)

	b.WriteString("var names = []string{\n")
	for _, n := range names {
		fmt.Fprintf(&b, "\t%q,\n", n)
	}
	b.WriteString("}\n\n")

	b.WriteString("var binary = []byte{\n")
	for i := 0; i < len(bin); i += 16 {
		b.WriteByte('\t')
		end := min(i+16, len(bin))
		for j := i; j < end; j++ {
			if j > i {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "0x%02x,", bin[j])
		}
		b.WriteByte('\n')
	}
	b.WriteString("}\n")

	src, err := format.Source(b.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated source: %w", err)
	}
	return src, nil
}
