package store

import (
	"fmt"

	"github.com/google/uuid"
)

// DefaultNamespace seeds row ids when RESULTS_NAMESPACE is unset. Changing
// it orphans previously stored runs.
var DefaultNamespace = uuid.MustParse("6f1c9f8e-3b7a-5d1e-9a44-2c0d7e5b8a31")

func v5(ns uuid.UUID, name string) uuid.UUID {
	return uuid.NewSHA1(ns, []byte(name))
}

func RunID(ns uuid.UUID, plan string, year int) uuid.UUID {
	return v5(ns, fmt.Sprintf("run:%s:%d", plan, year))
}

func TallyID(ns, runID uuid.UUID, race, districtType string, district int) uuid.UUID {
	return v5(ns, fmt.Sprintf("tally:%s:%s:%s:%d", runID, race, districtType, district))
}

func LeanID(ns, runID uuid.UUID, scope, districtType string, district int, race string) uuid.UUID {
	return v5(ns, fmt.Sprintf("lean:%s:%s:%s:%d:%s", runID, scope, districtType, district, race))
}
