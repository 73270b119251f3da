package tgen

// Host is implemented by the program embedding a Generator.
//
// Send is called once per scheduled message and should return quickly:
// time spent in Send is time the pacer cannot use to keep the rate.
// VariableChanged is called whenever a set or loop step, or SetVariable,
// writes a register. It is observational and must not call back into the
// Generator.
type Host interface {
	Send(g *Generator, length int)
	VariableChanged(g *Generator, id byte, value int)
}

// HostFuncs adapts plain functions to the Host interface. Nil fields are
// no-ops.
type HostFuncs struct {
	SendFunc            func(g *Generator, length int)
	VariableChangedFunc func(g *Generator, id byte, value int)
}

// Send implements Host.
func (h HostFuncs) Send(g *Generator, length int) {
	if h.SendFunc != nil {
		h.SendFunc(g, length)
	}
}

// VariableChanged implements Host.
func (h HostFuncs) VariableChanged(g *Generator, id byte, value int) {
	if h.VariableChangedFunc != nil {
		h.VariableChangedFunc(g, id, value)
	}
}
