package authority

import (
	"github.com/doorward/gatekeeper/internal/gatekeeper/schedule"
	"github.com/doorward/gatekeeper/internal/gatekeeper/types"
)

func windowsFromWire(in []types.AccessWindow) ([]schedule.Window, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]schedule.Window, 0, len(in))
	for _, w := range in {
		parsed, err := schedule.ParseWindow(w.Day, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

// WindowsToWire is the inverse of windowsFromWire.  Used by test fixtures
// and the status endpoint.
func WindowsToWire(in []schedule.Window) []types.AccessWindow {
	if len(in) == 0 {
		return nil
	}
	out := make([]types.AccessWindow, 0, len(in))
	for _, w := range in {
		out = append(out, types.AccessWindow{
			Day:   schedule.FormatDay(w.Day),
			Start: w.Start.String(),
			End:   w.End.String(),
		})
	}
	return out
}
