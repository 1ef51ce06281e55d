package story

import (
	"github.com/npillmayer/goink"
	"github.com/npillmayer/goink/content"
)

// VariableObserver is called with the new value of an observed global
// variable.
type VariableObserver func(name string, value interface{})

// ObserverID identifies a registered observer.
type ObserverID int

type observer struct {
	id ObserverID
	fn VariableObserver
}

// observers is a registry of variable observers by variable name. Observers
// of a variable are called in registration order.
type observers struct {
	byName map[string][]observer
	lastID ObserverID
}

// ObserveVariable registers an observer for a global variable. Changes made
// during a continuation are reported once, at its end, with the final value.
func (s *Story) ObserveVariable(name string, fn VariableObserver) (ObserverID, error) {
	if err := s.ifAsyncWeCant("observe a new variable"); err != nil {
		return 0, err
	}
	if !s.state.variables.GlobalVariableExistsWithName(name) {
		return 0, goink.Errorf(goink.RuntimeLogic,
			"Cannot observe variable '%s' because it wasn't declared in the ink story.", name)
	}
	if s.observers.byName == nil {
		s.observers.byName = make(map[string][]observer)
	}
	s.observers.lastID++
	id := s.observers.lastID
	s.observers.byName[name] = append(s.observers.byName[name], observer{id: id, fn: fn})
	return id, nil
}

// RemoveVariableObserver unregisters an observer.
func (s *Story) RemoveVariableObserver(id ObserverID) {
	for name, obs := range s.observers.byName {
		for i, o := range obs {
			if o.id == id {
				s.observers.byName[name] = append(obs[:i:i], obs[i+1:]...)
				if len(s.observers.byName[name]) == 0 {
					delete(s.observers.byName, name)
				}
				return
			}
		}
	}
}

// RemoveVariableObservers unregisters all observers of a variable.
func (s *Story) RemoveVariableObservers(name string) {
	delete(s.observers.byName, name)
}

// variableChanged dispatches a change of a global variable to observers.
func (s *Story) variableChanged(name string, v content.Value) {
	obs := s.observers.byName[name]
	if len(obs) == 0 {
		return
	}
	var value interface{}
	if v != nil {
		value = v.Native()
	}
	tracer().Debugf("variable %s changed to %v", name, value)
	for _, o := range obs {
		o.fn(name, value)
	}
}
