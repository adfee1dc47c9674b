package pos

import (
	"fmt"
	"math/rand/v2"
)

// Annotation is the display-only batch/expiry stamp put on a line at add time.
type Annotation struct {
	Batch  string
	Expiry string
}

// Annotator produces the annotation for a newly added line.
type Annotator func(Product) Annotation

// DefaultAnnotator uses the product's own batch and expiry when the catalog has
// them and falls back to a generated batch code.
func DefaultAnnotator(p Product) Annotation {
	a := Annotation{Batch: p.Batch}
	if a.Batch == "" {
		a.Batch = fmt.Sprintf("BT%03d", rand.IntN(1000))
	}
	if p.Expiry != nil {
		a.Expiry = p.Expiry.Format("Jan 2006")
	}
	return a
}

func instructionsFor(unit string, quantity int) string {
	if unit == UnitPack {
		return "Take as directed"
	}
	return fmt.Sprintf("Take %d %s as directed", quantity, unit)
}
