package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fleet-service/internal/model"
	"fleet-service/internal/storage"
)

// StatusNotifier receives vehicle status changes after the owning
// transaction has committed. A nil notifier disables the feed.
type StatusNotifier interface {
	BroadcastVehicleStatus(v *model.Vehicle)
}

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrStorage          = errors.New("storage failure")
)

// mapStoreErr translates storage errors into the service taxonomy.
// Call sites that need to name the missing entity check
// storage.ErrNotFound themselves before falling back here.
func mapStoreErr(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, storage.ErrDuplicate):
		return ErrConflict
	default:
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
}

func parseTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized time format %q", ErrInvalidInput, raw)
}
