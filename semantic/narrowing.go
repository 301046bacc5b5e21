package semantic

import "strings"

// NarrowingForm enumerates the condition shapes spec §4.4.3 assigns a
// narrowing rule to.
type NarrowingForm string

const (
	FormIsInstance      NarrowingForm = "isinstance"
	FormIsNone          NarrowingForm = "is_none"
	FormIsNotNone       NarrowingForm = "is_not_none"
	FormTypeofEquals    NarrowingForm = "typeof_equals"
	FormInstanceOf      NarrowingForm = "instanceof"
	FormTaggedUnion     NarrowingForm = "tagged_union"
	FormTypeGuard       NarrowingForm = "type_guard"
	FormUnrecognized    NarrowingForm = ""
)

// TypeState is the per-block narrowed-type map: variable node id -> narrowed
// type name. An empty/absent entry means "original declared type".
type TypeState map[string]string

// Clone returns a shallow copy, used when branching into TRUE_BRANCH /
// FALSE_BRANCH successors that must not share the same backing map.
func (s TypeState) Clone() TypeState {
	out := make(TypeState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Union merges two predecessor type states at a CFG join point: a variable
// keeps its narrowed type only if every predecessor agrees on it, otherwise
// it widens back to "" (original type), per spec §4.4.3 "union of
// predecessor states variable-by-variable".
func Union(states ...TypeState) TypeState {
	out := TypeState{}
	if len(states) == 0 {
		return out
	}
	for varID, typ := range states[0] {
		agree := true
		for _, s := range states[1:] {
			if s[varID] != typ {
				agree = false
				break
			}
		}
		if agree {
			out[varID] = typ
		}
	}
	return out
}

// Condition is a parsed conditional expression's narrowing-relevant shape:
// the recognized form, the narrowed variable's raw text, and the type name
// or literal it was compared/asserted against.
type Condition struct {
	Form     NarrowingForm
	Variable string
	Type     string
}

// Apply computes the TRUE_BRANCH and FALSE_BRANCH type states given the
// condition and the predecessor state, per the table in spec §4.4.3.
func (c Condition) Apply(pred TypeState) (onTrue, onFalse TypeState) {
	onTrue, onFalse = pred.Clone(), pred.Clone()
	switch c.Form {
	case FormIsInstance, FormTypeofEquals, FormInstanceOf, FormTypeGuard:
		onTrue[c.Variable] = c.Type
		onFalse[c.Variable] = "not:" + c.Type
	case FormIsNone:
		onTrue[c.Variable] = "None"
		onFalse[c.Variable] = "not:None"
	case FormIsNotNone:
		onTrue[c.Variable] = "not:None"
		onFalse[c.Variable] = "None"
	case FormTaggedUnion:
		onTrue[c.Variable] = c.Type
		onFalse[c.Variable] = "not:" + c.Type
	default:
		// Unrecognized condition form: no narrowing, both branches inherit
		// the predecessor state unchanged.
	}
	return onTrue, onFalse
}

// ParseCondition recognizes the condition shapes from spec §4.4.3's table
// against a raw source-text condition. This is a textual heuristic (the
// generator has already discarded the AST by the time the semantic pass
// runs over an IR-only CFG); a future CFG revision that retains condition
// subtrees could replace this with a structural match.
func ParseCondition(raw string) Condition {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "isinstance("); idx >= 0 {
		if v, t, ok := parseCallArgs(raw[idx:], "isinstance"); ok {
			return Condition{Form: FormIsInstance, Variable: v, Type: t}
		}
	}
	if strings.Contains(raw, "instanceof") {
		parts := strings.SplitN(raw, "instanceof", 2)
		if len(parts) == 2 {
			return Condition{Form: FormInstanceOf, Variable: strings.TrimSpace(parts[0]), Type: strings.TrimSpace(parts[1])}
		}
	}
	if strings.Contains(raw, "typeof") && strings.Contains(raw, "===") {
		parts := strings.SplitN(raw, "===", 2)
		if len(parts) == 2 {
			v := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(parts[0]), "typeof"))
			t := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
			return Condition{Form: FormTypeofEquals, Variable: v, Type: t}
		}
	}
	if strings.Contains(raw, "is not None") {
		v := strings.TrimSpace(strings.Replace(raw, "is not None", "", 1))
		return Condition{Form: FormIsNotNone, Variable: v}
	}
	if strings.Contains(raw, "is None") || strings.Contains(raw, "== None") {
		v := strings.TrimSpace(strings.NewReplacer("is None", "", "== None", "").Replace(raw))
		return Condition{Form: FormIsNone, Variable: v}
	}
	if strings.HasPrefix(raw, "!") {
		return Condition{Form: FormIsNone, Variable: strings.TrimSpace(strings.TrimPrefix(raw, "!"))}
	}
	// Bare truthy check, e.g. Python "if x:" — treated as an implicit
	// not-None narrowing.
	if raw != "" && !strings.ContainsAny(raw, "()=<>!") {
		return Condition{Form: FormIsNotNone, Variable: raw}
	}
	return Condition{Form: FormUnrecognized}
}

func parseCallArgs(raw, fn string) (arg1, arg2 string, ok bool) {
	raw = strings.TrimPrefix(raw, fn+"(")
	end := strings.Index(raw, ")")
	if end < 0 {
		return "", "", false
	}
	args := strings.SplitN(raw[:end], ",", 2)
	if len(args) != 2 {
		return "", "", false
	}
	return strings.TrimSpace(args[0]), strings.TrimSpace(args[1]), true
}
