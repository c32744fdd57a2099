package symtab

import (
	"errors"
	"reflect"
	"testing"

	"declang/pkg/langerr"
)

func TestDeclareAndRead(t *testing.T) {
	table := New()
	if err := table.Declare("x", "42", DeclareKind, IntegerType); err != nil {
		t.Fatalf("declare failed: %v", err)
	}

	val, err := table.Value("x")
	if err != nil || val != "42" {
		t.Fatalf("value wrong. got=%q err=%v", val, err)
	}
	typ, err := table.Type("x")
	if err != nil || typ != IntegerType {
		t.Fatalf("type wrong. got=%q err=%v", typ, err)
	}
}

func TestDeclareTwice(t *testing.T) {
	table := New()
	table.Declare("x", "1", DeclareKind, IntegerType)
	err := table.Declare("x", "2", DeclareKind, IntegerType)
	if !errors.Is(err, langerr.ErrAlreadyDeclared) {
		t.Fatalf("expected already declared, got=%v", err)
	}
	if val, _ := table.Value("x"); val != "1" {
		t.Fatalf("failed declare overwrote value. got=%q", val)
	}
}

func TestAssign(t *testing.T) {
	table := New()
	if err := table.Assign("x", "1"); !errors.Is(err, langerr.ErrUndeclaredVariable) {
		t.Fatalf("expected undeclared, got=%v", err)
	}

	table.Declare("x", "1", DeclareKind, IntegerType)
	if err := table.Assign("x", "9"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	e, ok := table.Lookup("x")
	if !ok {
		t.Fatal("x missing after assign")
	}
	want := Entry{Value: "9", DeclarationType: DeclareKind, Type: IntegerType}
	if e != want {
		t.Fatalf("entry wrong. got=%+v want=%+v", e, want)
	}
}

func TestCheckUndeclared(t *testing.T) {
	table := New()
	for _, fn := range []func() error{
		func() error { return table.Check("nope") },
		func() error { _, err := table.Value("nope"); return err },
		func() error { _, err := table.Type("nope"); return err },
	} {
		err := fn()
		if !errors.Is(err, langerr.ErrUndeclaredVariable) {
			t.Fatalf("expected undeclared, got=%v", err)
		}
		if err.Error() != "undeclared variable 'nope'" {
			t.Fatalf("message wrong. got=%q", err.Error())
		}
	}
}

func TestNames(t *testing.T) {
	table := New()
	for _, n := range []string{"b", "c", "a"} {
		table.Declare(n, "0", DeclareKind, IntegerType)
	}
	if got := table.Names(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("names wrong. got=%v", got)
	}
	if table.Len() != 3 {
		t.Fatalf("len wrong. got=%d", table.Len())
	}
}
