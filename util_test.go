package kvdoc

import (
	"errors"
	"testing"
)

func TestDedupStrings(t *testing.T) {
	deepEqual(t, dedupStrings([]string{"b", "a", "b", "c", "a"}), []string{"b", "a", "c"})
	deepEqual(t, dedupStrings(nil), []string{})
}

func TestMustAndEnsure(t *testing.T) {
	deepEqual(t, must(1, nil), 1)
	assertPanics(t, func() {
		must(0, errors.New("boom"))
	})
	ensure(nil)
	assertPanics(t, func() {
		ensure(errors.New("boom"))
	})
}

func TestIsNil(t *testing.T) {
	istrue(t, isNil(nil))
	istrue(t, isNil((*Person)(nil)))
	istrue(t, isNil([]int(nil)))
	isfalse(t, isNil(&Person{}))
	isfalse(t, isNil(Person{}))
	isfalse(t, isNil(0))
}

func TestLoggableObject(t *testing.T) {
	deepEqual(t, loggableObject(nil), "<none>")
	deepEqual(t, loggableObject(&Person{ID: "a", Name: "b"}), `{"id":"a","n":"b"}`)
	deepEqual(t, loggableObject(func() {}), "<func()>")
}
