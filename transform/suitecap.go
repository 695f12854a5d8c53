package transform

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/soypat/go-ccpp/dialect"
	"github.com/soypat/go-ccpp/ir"
	"github.com/soypat/go-ccpp/meta"
)

var (
	ErrNoCCPPModule     = errors.New("no ccpp module in tree, run " + MetaCAPName + " first")
	ErrUnknownSuite     = errors.New("unknown suite")
	ErrMissingSignature = errors.New("missing subroutine declaration")
	ErrMissingErrflg    = errors.New("missing integer errflg output argument")
)

// errflgName is the error code argument every scheme subroutine returns. A
// non zero value stops the remaining schemes of the phase.
const errflgName = "errflg"

// InconsistentArgError is returned when two schemes of a suite declare an
// argument of the same name with different types.
type InconsistentArgError struct {
	Phase  string
	Scheme string
	Arg    string
	Want   string // Type declared by the first scheme using Arg.
	Got    string
}

func (e *InconsistentArgError) Error() string {
	return fmt.Sprintf("phase %s: scheme %s: argument %s declared %s, previously declared %s", e.Phase, e.Scheme, e.Arg, e.Got, e.Want)
}

func describeType(a *meta.Argument) string {
	if a.Kind == "" {
		return a.Type
	}
	return a.Type + "(" + a.Kind + ")"
}

// slot is a suite level variable shared by every scheme using its name.
type slot struct {
	arg    *meta.Argument // First declaration.
	alloca *ir.Operation
}

func (s *slot) value() *ir.Value { return s.alloca.Result(0) }

// GeneratePhase synthesizes the subroutine running phase of every scheme of
// suite in order. The subroutine allocates one variable per distinct
// argument name, zeroes errflg and calls each scheme inside a guard on
// errflg being zero, each guard nested in the previous one. Results are
// copied back into the variables and all variables are returned.
//
// The declarations of the called subroutines, looked up in sigs, are
// returned as body-less copies in call order, without repetition.
func GeneratePhase(suite *meta.Suite, md *meta.Metadata, sigs map[string]dialect.FuncOp, phase Phase) (dialect.FuncOp, []*ir.Operation, error) {
	schemes := suite.SchemeNames()
	if len(schemes) == 0 {
		return dialect.FuncOp{}, nil, fmt.Errorf("suite %s has no schemes", suite.Name)
	}
	tables := make([]*meta.ArgumentTable, len(schemes))
	for i, name := range schemes {
		t, err := md.ArgTable(name, name+phase.Suffix)
		if err != nil {
			return dialect.FuncOp{}, nil, fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		if err := checkErrflg(t); err != nil {
			return dialect.FuncOp{}, nil, fmt.Errorf("suite %s: scheme %s: %w", suite.Name, name, err)
		}
		tables[i] = t
	}

	var slots []*slot
	byName := make(map[string]*slot)
	for i, t := range tables {
		for _, arg := range t.Args {
			if s, ok := byName[arg.Name]; ok {
				if !meta.SameType(s.arg, arg) {
					return dialect.FuncOp{}, nil, &InconsistentArgError{
						Phase:  phase.Name,
						Scheme: schemes[i],
						Arg:    arg.Name,
						Want:   describeType(s.arg),
						Got:    describeType(arg),
					}
				}
				continue
			}
			typ, err := meta.ArgumentType(arg)
			if err != nil {
				return dialect.FuncOp{}, nil, fmt.Errorf("suite %s: scheme %s: %w", suite.Name, schemes[i], err)
			}
			s := &slot{arg: arg, alloca: dialect.NewAlloca(typ, arg.Name)}
			byName[arg.Name] = s
			slots = append(slots, s)
		}
	}

	var decls []*ir.Operation
	declared := make(map[string]bool)
	calls := make([]dialect.CallOp, len(tables))
	for i, t := range tables {
		name := t.Name
		sig, ok := sigs[name]
		if !ok {
			return dialect.FuncOp{}, nil, fmt.Errorf("suite %s: %s: %w", suite.Name, name, ErrMissingSignature)
		}
		call, err := schemeCall(t, byName)
		if err != nil {
			return dialect.FuncOp{}, nil, err
		}
		if !signatureMatches(sig.Type(), call) {
			return dialect.FuncOp{}, nil, fmt.Errorf("suite %s: declaration %s %s does not match its argument table", suite.Name, name, sig.Type())
		}
		calls[i] = call
		if !declared[name] {
			declared[name] = true
			decls = append(decls, sig.Declaration().Operation)
		}
	}

	errflg := byName[errflgName].value()
	ft := ir.FunctionType{}
	results := make([]*ir.Value, len(slots))
	for i, s := range slots {
		ft.Outputs = append(ft.Outputs, s.value().Type())
		results[i] = s.value()
	}
	fn := dialect.NewFunc(suite.Name+"_suite"+phase.OutputSuffix, ft, func(body *ir.Block) {
		for _, s := range slots {
			body.AddOp(s.alloca)
		}
		zero := dialect.NewIntConstant(0, 32)
		body.AddOp(zero, dialect.NewStore(zero.Result(0), errflg))

		var guards []*ir.Block
		cur := body
		for i, call := range calls {
			then := ir.NewBlock()
			then.AddOp(call.Operation)
			outs := outputArgs(tables[i])
			for j, res := range call.Results() {
				then.AddOp(dialect.NewCopy(res, byName[outs[j].Name].value()))
			}
			cur.AddOp(errflgGuard(errflg, then)...)
			guards = append(guards, then)
			cur = then
		}
		for _, then := range guards {
			then.AddOp(dialect.NewYield())
		}
		body.AddOp(dialect.NewReturn(results...))
	})
	return fn, decls, nil
}

// errflgGuard returns the operations testing errflg against zero and
// running then if it is.
func errflgGuard(errflg *ir.Value, then *ir.Block) []*ir.Operation {
	zero := dialect.NewIntConstant(0, 32)
	load, _ := dialect.NewLoad(errflg)
	cmp := dialect.NewCmpI(dialect.CmpIEq, load.Result(0), zero.Result(0))
	guard := dialect.NewIf(cmp.Result(0), then, nil)
	return []*ir.Operation{zero, load, cmp, guard.Operation}
}

// schemeCall returns the call of the subroutine described by t. Operands
// are the variables of input arguments, results have the types of the
// variables of output arguments, both in declaration order.
func schemeCall(t *meta.ArgumentTable, vars map[string]*slot) (dialect.CallOp, error) {
	var operands []*ir.Value
	var resultTypes []ir.Type
	for _, arg := range t.Args {
		v := vars[arg.Name].value()
		if arg.IsInput() {
			operands = append(operands, v)
		}
		if arg.IsOutput() {
			resultTypes = append(resultTypes, v.Type())
		}
		if !arg.IsInput() && !arg.IsOutput() {
			return dialect.CallOp{}, fmt.Errorf("table %s: argument %s: unknown intent %q", t.Name, arg.Name, arg.Intent)
		}
	}
	return dialect.NewCall(t.Name, operands, resultTypes), nil
}

func outputArgs(t *meta.ArgumentTable) []*meta.Argument {
	var out []*meta.Argument
	for _, arg := range t.Args {
		if arg.IsOutput() {
			out = append(out, arg)
		}
	}
	return out
}

func signatureMatches(ft ir.FunctionType, call dialect.CallOp) bool {
	inputs := make([]ir.Type, call.NumOperands())
	for i, v := range call.Operands() {
		inputs[i] = v.Type()
	}
	outputs := make([]ir.Type, call.NumResults())
	for i, v := range call.Results() {
		outputs[i] = v.Type()
	}
	return ir.TypeListsEqual(ft.Inputs, inputs) && ir.TypeListsEqual(ft.Outputs, outputs)
}

func checkErrflg(t *meta.ArgumentTable) error {
	arg, ok := t.Arg(errflgName)
	if !ok {
		return fmt.Errorf("table %s: %w", t.Name, ErrMissingErrflg)
	}
	if !arg.IsOutput() {
		return fmt.Errorf("table %s: errflg has intent %s: %w", t.Name, arg.EffectiveIntent(), ErrMissingErrflg)
	}
	if typ, err := meta.BaseType(arg.Type); err != nil || !ir.TypesEqual(typ, ir.I32) {
		return fmt.Errorf("table %s: errflg of type %s: %w", t.Name, arg.Type, ErrMissingErrflg)
	}
	return nil
}

// SuiteCAP generates, for every suite in the ccpp module, a module named
// <suite>_cap holding one subroutine per phase followed by the declarations
// of the scheme subroutines they call. The modules are inserted at the start
// of the top level in suite order.
type SuiteCAP struct {
	// Phases to generate. Nil means DefaultPhases.
	Phases []Phase
}

func (p *SuiteCAP) Name() string { return SuiteCAPName }

func (p *SuiteCAP) Apply(top dialect.ModuleOp, log *zap.Logger) error {
	log = orNop(log)
	mod, ok := dialect.FindModule(top, CCPPModuleName)
	if !ok {
		return ErrNoCCPPModule
	}
	md, err := meta.BuildMetadata(mod.Operation)
	if err != nil {
		return err
	}
	suites, err := meta.BuildSuites(mod.Operation)
	if err != nil {
		return err
	}
	sigs := meta.GatherSignatures(mod.Operation)
	phases := p.Phases
	if phases == nil {
		phases = DefaultPhases
	}

	var caps []*ir.Operation
	walker := ir.RewriteWalker{Patterns: []ir.RewritePattern{
		ir.OnOp(dialect.Suite, func(op *ir.Operation, _ *ir.Rewriter) error {
			so, _ := dialect.AsSuite(op)
			suite, ok := suites.Get(so.SuiteName())
			if !ok {
				return fmt.Errorf("%w %q", ErrUnknownSuite, so.SuiteName())
			}
			capMod, err := generateCAP(suite, md, sigs, phases, log)
			if err != nil {
				return err
			}
			caps = append(caps, capMod.Operation)
			return nil
		}),
	}}
	if _, err := walker.Rewrite(mod.Operation); err != nil {
		return err
	}
	var rw ir.Rewriter
	return rw.InsertOp(ir.AtStart(top.Body()), caps...)
}

func generateCAP(suite *meta.Suite, md *meta.Metadata, sigs map[string]dialect.FuncOp, phases []Phase, log *zap.Logger) (dialect.ModuleOp, error) {
	var fns, decls []*ir.Operation
	declared := make(map[string]bool)
	for _, ph := range phases {
		fn, used, err := GeneratePhase(suite, md, sigs, ph)
		if err != nil {
			return dialect.ModuleOp{}, err
		}
		fns = append(fns, fn.Operation)
		for _, d := range used {
			f, _ := dialect.AsFunc(d)
			if !declared[f.SymName()] {
				declared[f.SymName()] = true
				decls = append(decls, d)
			}
		}
		log.Info("generated suite subroutine",
			zap.String("suite", suite.Name),
			zap.String("phase", ph.Name),
			zap.String("subroutine", fn.SymName()),
			zap.Int("schemes", len(suite.SchemeNames())),
			zap.Int("variables", len(fn.Type().Outputs)))
	}
	return dialect.NewModule(suite.Name+"_cap", append(fns, decls...)...), nil
}
