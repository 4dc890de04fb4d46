package quote

import (
	"fmt"
	"math/rand"
	"time"
)

// NewQuoteNumber builds a QT-yymmdd-NNNN number with a random 4-digit
// suffix. Like order numbers, the suffix can collide; creation re-rolls
// on a unique-index collision.
func NewQuoteNumber(now time.Time) string {
	return fmt.Sprintf("QT-%s-%04d", now.Format("060102"), rand.Intn(10000))
}
