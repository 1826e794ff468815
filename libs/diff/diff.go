package diff

import (
	"reflect"
	"time"

	odiff "github.com/r3labs/diff/v3"
)

// GetCustomDiffer returns a differ that treats time.Time as a leaf compared by
// instant and that considers slice order significant.
func GetCustomDiffer() *odiff.Differ {
	ret, err := odiff.NewDiffer(
		odiff.CustomValueDiffers(&TimeComparer{}),
		odiff.SliceOrdering(true),
	)
	if err != nil {
		panic(err)
	}
	return ret
}

// Changed reports whether a and b differ in any field.
func Changed(differ *odiff.Differ, a, b interface{}) (bool, error) {
	cl, err := differ.Diff(a, b)
	if err != nil {
		return true, err
	}
	return len(cl) > 0, nil
}

type TimeComparer struct{}

var (
	timeType = reflect.TypeOf(time.Time{})
)

// Match check is field match this custom type
func (c TimeComparer) Match(a, b reflect.Value) bool {
	aok := a.Kind() == timeType.Kind() && a.Type() == timeType
	bok := b.Kind() == timeType.Kind() && b.Type() == timeType
	return (aok && bok) || (a.Kind() == reflect.Invalid && bok) || (b.Kind() == reflect.Invalid && aok)
}

// Diff records an update when the two instants differ. Location and the
// monotonic clock reading are ignored.
func (c TimeComparer) Diff(_ odiff.DiffType, _ odiff.DiffFunc, cl *odiff.Changelog, path []string, a reflect.Value, b reflect.Value, _ interface{}) error {
	valA := reflect.Indirect(a)
	valB := reflect.Indirect(b)

	// one side missing counts as a change
	if !valA.IsValid() || !valB.IsValid() {
		if valA.IsValid() != valB.IsValid() {
			cl.Add(odiff.UPDATE, path, interfaceOf(a), interfaceOf(b))
		}
		return nil
	}

	t1 := valA.Interface().(time.Time)
	t2 := valB.Interface().(time.Time)
	if !t1.Equal(t2) {
		cl.Add(odiff.UPDATE, path, t1, t2)
	}
	return nil
}

func interfaceOf(v reflect.Value) interface{} {
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}

// InsertParentDiffer is a no-op, time is a leaf.
func (c TimeComparer) InsertParentDiffer(_ func(path []string, a reflect.Value, b reflect.Value, p interface{}) error) {
}
