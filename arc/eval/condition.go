// Copyright 2024 The Arcana Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package eval

import (
	"strings"

	"arcana.dev/arcana/arc/ast"
	arcerr "arcana.dev/arcana/arc/errors"
	"arcana.dev/arcana/arc/token"
	"arcana.dev/arcana/arc/value"
)

// evalCondition folds an If tag's already-parsed Condition left to
// right: && and || share one precedence level (spec.md §4.C), so each
// operator is applied to the running result and the next term in
// source order, short-circuiting the next term's resolution only when
// that specific operator already determines the outcome.
func (e *Evaluator) evalCondition(cond ast.Condition, pos token.Position) (bool, error) {
	result, err := e.evalTerm(cond.Terms[0], pos)
	if err != nil {
		return false, err
	}
	for i, op := range cond.Ops {
		switch op {
		case "&&":
			if !result {
				continue
			}
			result, err = e.evalTerm(cond.Terms[i+1], pos)
		case "||":
			if result {
				continue
			}
			result, err = e.evalTerm(cond.Terms[i+1], pos)
		}
		if err != nil {
			return false, err
		}
	}
	return result, nil
}

func (e *Evaluator) evalTerm(term ast.Term, pos token.Position) (bool, error) {
	var result bool
	switch {
	case term.CompareOp != "":
		lv, lok := e.resolveOperand(term.Alias)
		rv, rok := e.resolveOperand(term.Right)
		if !lok || !rok {
			return false, arcerr.Newf(arcerr.AliasNotFound, pos, "condition: %q not found", strings.Join(term.Alias, "."))
		}
		r, err := compareTerm(term.CompareOp, lv, rv)
		if err != nil {
			return false, arcerr.Wrapf(arcerr.TypeMismatch, pos, err, "condition")
		}
		result = r
	case term.Predicate == "exists":
		_, ok := e.stack.Resolve(term.Alias)
		result = ok
	case term.Predicate == "empty":
		v, ok := e.stack.Resolve(term.Alias)
		result = !ok || v.Empty()
	default: // implicit "truthy"; a missing alias is recoverably false (spec.md §7)
		v, ok := e.stack.Resolve(term.Alias)
		result = ok && v.Truthy()
	}
	if term.Negate {
		result = !result
	}
	return result, nil
}

// resolveOperand resolves a condition operand: a single quoted
// segment is a string literal, anything else is an alias path.
func (e *Evaluator) resolveOperand(segs []string) (value.Value, bool) {
	if len(segs) == 1 && isQuotedLiteral(segs[0]) {
		return value.NewString(unquoteLiteral(segs[0])), true
	}
	return e.stack.Resolve(segs)
}

func compareTerm(op string, lv, rv value.Value) (bool, error) {
	if op == "==" || op == "!=" {
		eq := value.Equal(lv, rv)
		if op == "==" {
			return eq, nil
		}
		return !eq, nil
	}
	cmp, err := value.Compare(lv, rv)
	if err != nil {
		return false, err
	}
	switch op {
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	default:
		return false, err
	}
}

func isQuotedLiteral(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

func unquoteLiteral(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
}
