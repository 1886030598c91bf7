package amqp

import (
	"encoding/json"
	"errors"
	"fmt"

	"economoney/internal/core"
)

// EncodeEvent serializes a ledger event as the message body.
func EncodeEvent(e core.LedgerEvent) ([]byte, error) {
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// DecodeEvent parses and validates a message body.
func DecodeEvent(data []byte) (core.LedgerEvent, error) {
	var e core.LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return core.LedgerEvent{}, fmt.Errorf("unmarshal ledger event: %w", err)
	}
	if err := validateEvent(e); err != nil {
		return core.LedgerEvent{}, err
	}
	return e, nil
}

func validateEvent(e core.LedgerEvent) error {
	if e.ID == "" {
		return errors.New("ledger event without id")
	}
	switch e.Kind {
	case core.EventExpensePosted, core.EventBudgetAdjusted:
	default:
		return fmt.Errorf("unknown ledger event kind %q", e.Kind)
	}
	if e.UserID == 0 {
		return core.ErrInvalidUser
	}
	return nil
}
