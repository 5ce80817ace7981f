package utils

import (
	"github.com/denisbrodbeck/machineid"
)

// HWID is a stable machine identifier scoped to the app.
// Falls back to "unknown" on platforms where no machine id is available.
var HWID = func() string {
	id, err := machineid.ProtectedID("forked")
	if err != nil {
		return "unknown"
	}
	return id
}()
