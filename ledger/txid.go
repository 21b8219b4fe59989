package ledger

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateTrxID allocates a ledger transaction id. It must be unique
// under concurrent callers and independent of the gateway, since it is
// sent to bKash as the merchant invoice number before the gateway has
// assigned anything of its own.
func GenerateTrxID() string {
	return "TRX" + strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))
}
