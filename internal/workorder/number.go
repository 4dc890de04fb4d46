package workorder

import (
	"fmt"
	"math/rand"
	"time"
)

// NewOrderNumber builds a WOyymmdd-NNNNNN number with a random 6-digit
// suffix. The suffix is not guaranteed unique; creation re-rolls on a
// unique-index collision.
func NewOrderNumber(now time.Time) string {
	return fmt.Sprintf("WO%s-%06d", now.Format("060102"), rand.Intn(1000000))
}
