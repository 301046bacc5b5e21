package golang

// scopeKind enumerates ScopeStack frame kinds (spec §4.2 "Scope handling").
type scopeKind string

const (
	scopeModule   scopeKind = "module"
	scopeClass    scopeKind = "class"
	scopeFunction scopeKind = "function"
	scopeBlock    scopeKind = "block"
)

// scopeFrame is one frame of the ScopeStack maintained during traversal:
// scope kind, the fqn prefix, a symbol table (name -> node id), and an
// import alias map (local name -> canonical fqn).
type scopeFrame struct {
	kind       scopeKind
	fqnPrefix  string
	symbols    map[string]string // name -> node id
	aliases    map[string]string // local import name -> canonical package fqn
}

// scopeStack is the traversal-time structure every name resolution in the
// generator consults, per spec §4.2.
type scopeStack struct {
	frames []*scopeFrame
}

func newScopeStack(modulePrefix string) *scopeStack {
	return &scopeStack{frames: []*scopeFrame{{
		kind:      scopeModule,
		fqnPrefix: modulePrefix,
		symbols:   map[string]string{},
		aliases:   map[string]string{},
	}}}
}

func (s *scopeStack) push(kind scopeKind, fqnPrefix string) *scopeFrame {
	f := &scopeFrame{kind: kind, fqnPrefix: fqnPrefix, symbols: map[string]string{}, aliases: map[string]string{}}
	s.frames = append(s.frames, f)
	return f
}

func (s *scopeStack) pop() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *scopeStack) top() *scopeFrame { return s.frames[len(s.frames)-1] }

// define registers name -> nodeID in the current (innermost) frame.
func (s *scopeStack) define(name, nodeID string) {
	s.top().symbols[name] = nodeID
}

// resolve looks a bare name up from innermost frame outward (spec §4.2 rule
// 1: "Bare name call -> resolve against current scope upwards").
func (s *scopeStack) resolve(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if id, ok := s.frames[i].symbols[name]; ok {
			return id, true
		}
	}
	return "", false
}

// aliasFor looks up an import alias from innermost frame outward (aliases
// are typically only set at module scope, but the lookup is scope-shaped
// for consistency with resolve).
func (s *scopeStack) aliasFor(name string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		if fqn, ok := s.frames[i].aliases[name]; ok {
			return fqn, true
		}
	}
	return "", false
}

// defineAlias registers a local import name at module scope (frame 0),
// since Go import aliases are file-scoped, which this generator treats as
// module-scoped for simplicity.
func (s *scopeStack) defineAlias(local, canonicalFQN string) {
	s.frames[0].aliases[local] = canonicalFQN
}
