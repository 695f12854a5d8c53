package transform

import (
	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
)

// StripCCPP erases the ccpp module once the suite caps have been generated.
type StripCCPP struct{}

func (StripCCPP) Name() string { return StripCCPPName }

func (StripCCPP) Apply(top dialect.ModuleOp, log *zap.Logger) error {
	log = orNop(log)
	walker := ir.RewriteWalker{Patterns: []ir.RewritePattern{
		ir.OnOp(dialect.Module, func(op *ir.Operation, rw *ir.Rewriter) error {
			if m, _ := dialect.AsModule(op); m.SymName() != CCPPModuleName {
				return nil
			}
			log.Debug("erasing module", zap.String("module", CCPPModuleName))
			return rw.EraseOp(op)
		}),
	}}
	_, err := walker.Rewrite(top.Operation)
	return err
}
