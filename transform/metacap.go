package transform

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/meta"
)

// CCPPModuleName names the module holding suites, metadata and the
// subroutine declarations synthesized from it.
const CCPPModuleName = "ccpp"

// MetaCAP moves every suite and table properties operation of the tree into
// a new module named ccpp, appended to the top level, and adds to it one
// external subroutine declaration per argument table.
type MetaCAP struct{}

func (MetaCAP) Name() string { return MetaCAPName }

func (MetaCAP) Apply(top dialect.ModuleOp, log *zap.Logger) error {
	log = orNop(log)
	if _, ok := dialect.FindModule(top, CCPPModuleName); ok {
		return fmt.Errorf("module %s already present", CCPPModuleName)
	}
	mod := dialect.NewModule(CCPPModuleName)
	moveInto := func(op *ir.Operation, rw *ir.Rewriter) error {
		return rw.MoveOp(op, ir.AtEnd(mod.Body()))
	}
	walker := ir.RewriteWalker{Patterns: []ir.RewritePattern{
		ir.OnOp(dialect.Suite, moveInto),
		ir.OnOp(dialect.TableProperties, moveInto),
	}}
	if _, err := walker.Rewrite(top.Operation); err != nil {
		return err
	}
	log.Debug("relocated metadata", zap.Int("ops", mod.Body().Len()))

	md, err := meta.BuildMetadata(mod.Operation)
	if err != nil {
		return err
	}
	for _, props := range md.Properties() {
		for _, t := range props.Tables {
			ft, err := meta.Signature(t)
			if err != nil {
				return fmt.Errorf("%s: %w", props.Name, err)
			}
			mod.Body().AddOp(dialect.NewDeclaration(t.Name, ft).Operation)
			log.Debug("declared subroutine", zap.String("name", t.Name), zap.Stringer("type", ft))
		}
	}
	top.Body().AddOp(mod.Operation)
	return nil
}
