// Package symtab holds the variables declared during one declang run.
package symtab

import (
	"sort"

	"declang/pkg/langerr"
)

const (
	DeclareKind = "DECLARE"
	IntegerType = "INTEGER"
)

// Entry is one declared variable. Value is the decimal form of an integer.
type Entry struct {
	Value           string
	DeclarationType string
	Type            string
}

// Table is a single flat namespace; there is no block scoping.
type Table struct {
	store map[string]*Entry
}

func New() *Table {
	return &Table{store: make(map[string]*Entry)}
}

func (t *Table) Declare(name, value, declarationType, typ string) error {
	if _, ok := t.store[name]; ok {
		return langerr.New(langerr.KindAlreadyDeclared, "variable '%s' is already declared", name)
	}
	t.store[name] = &Entry{Value: value, DeclarationType: declarationType, Type: typ}
	return nil
}

// Assign overwrites the value of an existing variable, leaving its
// declaration and type tags alone.
func (t *Table) Assign(name, value string) error {
	e, ok := t.store[name]
	if !ok {
		return undeclared(name)
	}
	e.Value = value
	return nil
}

func (t *Table) Check(name string) error {
	if _, ok := t.store[name]; !ok {
		return undeclared(name)
	}
	return nil
}

func (t *Table) Value(name string) (string, error) {
	if err := t.Check(name); err != nil {
		return "", err
	}
	return t.store[name].Value, nil
}

func (t *Table) Type(name string) (string, error) {
	if err := t.Check(name); err != nil {
		return "", err
	}
	return t.store[name].Type, nil
}

// Lookup returns a copy of the entry for name.
func (t *Table) Lookup(name string) (Entry, bool) {
	e, ok := t.store[name]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Names returns the declared names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.store))
	for name := range t.store {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t *Table) Len() int { return len(t.store) }

func undeclared(name string) error {
	return langerr.New(langerr.KindUndeclaredVariable, "undeclared variable '%s'", name)
}
