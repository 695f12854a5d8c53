package dialect

import (
	"errors"
	"fmt"
	"slices"

	"github.com/soypat/go-ccpp/ir"
)

type opSchema struct {
	props    []string // required properties.
	regions  int      // -1 skips the check.
	operands int      // -1 skips the check.
	results  int      // -1 skips the check.
	check    func(op *ir.Operation) error
}

var schemas = map[string]opSchema{
	Module:   {regions: 1, operands: 0, results: 0},
	Func:     {props: []string{PropSymName, PropFunctionType}, regions: 1, operands: 0, results: 0, check: checkFunc},
	Call:     {props: []string{PropCallee}, regions: 0, operands: -1, results: -1},
	Return:   {regions: 0, operands: -1, results: 0},
	Alloca:   {regions: 0, operands: 0, results: 1, check: checkAlloca},
	Load:     {regions: 0, operands: -1, results: 1, check: checkMemOperand(0)},
	Store:    {regions: 0, operands: -1, results: 0, check: checkMemOperand(1)},
	Copy:     {regions: 0, operands: 2, results: 0},
	Constant: {props: []string{PropValue}, regions: 0, operands: 0, results: 1},
	CmpI:     {props: []string{PropPredicate}, regions: 0, operands: 2, results: 1, check: checkCmpI},
	CmpF:     {props: []string{PropPredicate}, regions: 0, operands: 2, results: 1, check: checkCmpF},
	If:       {regions: 2, operands: 1, results: 0, check: checkIf},
	Yield:    {regions: 0, operands: -1, results: 0},

	Suite:           {props: []string{PropSuiteName}, regions: 1, operands: 0, results: 0, check: childrenNamed(Group)},
	Group:           {props: []string{PropGroupName}, regions: 1, operands: 0, results: 0, check: childrenNamed(Scheme)},
	Scheme:          {props: []string{PropSchemeName}, regions: 0, operands: 0, results: 0},
	TableProperties: {props: []string{PropName, PropType}, regions: 1, operands: 0, results: 0, check: checkTable(ArgTable)},
	ArgTable:        {props: []string{PropName, PropType}, regions: 1, operands: 0, results: 0, check: checkTable(Arg)},
	Arg:             {props: []string{PropName, PropType}, regions: 0, operands: 0, results: 0},
}

func init() {
	for _, name := range BinaryOps {
		schemas[name] = opSchema{regions: 0, operands: 2, results: 1}
	}
}

// Verify checks the structure of the tree rooted at op with [ir.Verify] and
// then checks every operation of a known kind for its required properties,
// region, operand and result counts. Unknown operation kinds are accepted.
func Verify(op *ir.Operation) error {
	if err := ir.Verify(op); err != nil {
		return err
	}
	var errs []error
	ir.Inspect(op, func(o *ir.Operation) bool {
		if o == nil {
			return false
		}
		if err := verifyOp(o); err != nil {
			errs = append(errs, err)
		}
		return true
	})
	return errors.Join(errs...)
}

func verifyOp(op *ir.Operation) error {
	s, ok := schemas[op.Name]
	if !ok {
		return nil
	}
	for _, p := range s.props {
		if op.Prop(p) == nil {
			return fmt.Errorf("%s: missing property %q", op.Name, p)
		}
	}
	if s.regions >= 0 && len(op.Regions()) != s.regions {
		return fmt.Errorf("%s: expected %d regions, got %d", op.Name, s.regions, len(op.Regions()))
	}
	if s.operands >= 0 && op.NumOperands() != s.operands {
		return fmt.Errorf("%s: expected %d operands, got %d", op.Name, s.operands, op.NumOperands())
	}
	if s.results >= 0 && op.NumResults() != s.results {
		return fmt.Errorf("%s: expected %d results, got %d", op.Name, s.results, op.NumResults())
	}
	if s.check != nil {
		return s.check(op)
	}
	return nil
}

func checkFunc(op *ir.Operation) error {
	f := FuncOp{op}
	if _, ok := op.Prop(PropFunctionType).(ir.TypeAttr); !ok {
		return fmt.Errorf("%s %s: function_type is not a type", op.Name, f.SymName())
	}
	if f.IsDeclaration() {
		return nil
	}
	body := f.Body()
	want := f.Type().Inputs
	if len(body.Args()) != len(want) {
		return fmt.Errorf("%s %s: entry block has %d arguments, signature %d", op.Name, f.SymName(), len(body.Args()), len(want))
	}
	last := body.Last()
	if last == nil || last.Name != Return {
		return fmt.Errorf("%s %s: body must end in %s", op.Name, f.SymName(), Return)
	}
	got := make([]ir.Type, last.NumOperands())
	for i, v := range last.Operands() {
		got[i] = v.Type()
	}
	if !ir.TypeListsEqual(got, f.Type().Outputs) {
		return fmt.Errorf("%s %s: returned types do not match signature", op.Name, f.SymName())
	}
	return nil
}

func checkAlloca(op *ir.Operation) error {
	if _, ok := op.Result(0).Type().(ir.MemRefType); !ok {
		return fmt.Errorf("%s: result must be a memref, got %s", op.Name, op.Result(0).Type())
	}
	return nil
}

func checkMemOperand(i int) func(*ir.Operation) error {
	return func(op *ir.Operation) error {
		if op.NumOperands() <= i {
			return fmt.Errorf("%s: missing memref operand", op.Name)
		}
		mt, ok := op.Operand(i).Type().(ir.MemRefType)
		if !ok {
			return fmt.Errorf("%s: operand %d must be a memref", op.Name, i)
		}
		if nidx := op.NumOperands() - i - 1; nidx != len(mt.Shape) {
			return fmt.Errorf("%s: %s takes %d indices, got %d", op.Name, mt, len(mt.Shape), nidx)
		}
		return nil
	}
}

func checkCmpI(op *ir.Operation) error {
	if p := CmpIPredicate(Predicate(op)); !slices.Contains(cmpIPredicates, p) {
		return fmt.Errorf("%s: unknown predicate %q", op.Name, p)
	}
	return nil
}

func checkCmpF(op *ir.Operation) error {
	if p := CmpFPredicate(Predicate(op)); !slices.Contains(cmpFPredicates, p) {
		return fmt.Errorf("%s: unknown predicate %q", op.Name, p)
	}
	return nil
}

func checkIf(op *ir.Operation) error {
	if !ir.TypesEqual(op.Operand(0).Type(), ir.I1) {
		return fmt.Errorf("%s: condition must be i1, got %s", op.Name, op.Operand(0).Type())
	}
	if op.Region(0).Empty() {
		return fmt.Errorf("%s: missing then block", op.Name)
	}
	return nil
}

func childrenNamed(child string) func(*ir.Operation) error {
	return func(op *ir.Operation) error {
		b := op.Region(0).Block()
		if b == nil {
			return nil
		}
		for _, c := range b.Ops() {
			if c.Name != child {
				return fmt.Errorf("%s: %w", op.Name, kindError(c, child))
			}
		}
		return nil
	}
}

func checkTable(child string) func(*ir.Operation) error {
	nested := childrenNamed(child)
	return func(op *ir.Operation) error {
		if _, err := ParseTableKind(stringProp(op, PropType)); err != nil {
			return fmt.Errorf("%s %s: %w", op.Name, stringProp(op, PropName), err)
		}
		return nested(op)
	}
}
