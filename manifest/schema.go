package manifest

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed schema.cue
var schemaSource string

// Validate checks m against the embedded CUE schema. Defaults must already
// be applied, since every non-optional field has to be concrete.
func Validate(m *Manifest) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("manifest: schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))
	if err := def.Err(); err != nil {
		return fmt.Errorf("manifest: schema: %w", err)
	}

	v := ctx.Encode(m)
	if err := v.Err(); err != nil {
		return fmt.Errorf("manifest: encode: %w", err)
	}
	if err := def.Unify(v).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("manifest: invalid: %w", err)
	}
	return nil
}
