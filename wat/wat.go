package wat

import (
	"github.com/wippyai/mathkernel/errors"
	"github.com/wippyai/mathkernel/wasm"
	"github.com/wippyai/mathkernel/wat/internal/parser"
	"github.com/wippyai/mathkernel/wat/internal/token"
)

// Compile compiles WAT source to a WebAssembly binary. The output is not
// validated; use wasm.ParseModuleValidate for that.
func Compile(source string) ([]byte, error) {
	mod, err := Parse(source)
	if err != nil {
		return nil, err
	}
	return mod.Encode(), nil
}

// Parse parses WAT source into a module. Errors carry the parse phase and
// the line of the offending token.
func Parse(source string) (*wasm.Module, error) {
	mod, err := parser.New(token.Tokenize(source)).Parse()
	if err != nil {
		return nil, errors.ParseFailed("WAT", err)
	}
	return mod, nil
}
