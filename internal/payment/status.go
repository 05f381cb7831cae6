package payment

import "github.com/lunafit/studio-booking/internal/model"

// MapStatus translates a vendor webhook status into the internal order
// status. The second return is false for anything outside the fixed
// enumeration; callers must reject such payloads rather than silently
// skipping them.
func MapStatus(vendor string) (string, bool) {
	switch vendor {
	case StatusSuccess:
		return model.OrderSuccessful, true
	case StatusFailed:
		return model.OrderFailed, true
	case StatusExpired:
		return model.OrderExpired, true
	case StatusCancelled:
		return model.OrderCancelled, true
	default:
		return "", false
	}
}
