package disk

import (
	"fmt"
	"strconv"

	"k8s.io/apimachinery/pkg/api/resource"
)

// binarySuffixes and decimalSuffixes mirror Kubernetes' resource.Quantity
// suffix table. ParseQuantity below delegates the well-formed cases to
// apimachinery directly; this table only documents the semantics being
// relied on (see quantity_test.go for the exact value each suffix produces).
var binarySuffixes = map[string]int64{
	"Ki": 1 << 10,
	"Mi": 1 << 20,
	"Gi": 1 << 30,
	"Ti": 1 << 40,
	"Pi": 1 << 50,
	"Ei": 1 << 60,
}

var decimalSuffixes = map[string]int64{
	"k": 1_000,
	"M": 1_000_000,
	"G": 1_000_000_000,
	"T": 1_000_000_000_000,
	"P": 1_000_000_000_000_000,
	"E": 1_000_000_000_000_000_000,
}

// ParseQuantity parses a Kubernetes resource quantity string into a byte
// count. It first tries apimachinery's resource.ParseQuantity (handling
// "100", "1Ki".."55Ei", "1k".."55E"), falling back to a bare
// float/exponential parse ("1e2") for inputs ParseQuantity rejects.
func ParseQuantity(s string) (int64, error) {
	if q, err := resource.ParseQuantity(s); err == nil {
		return q.Value(), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid storage quantity %q: %w", s, err)
	}
	return int64(f), nil
}

// FormatQuantity renders a byte count the way disk requests are sent to
// the cluster: a bare decimal integer, letting Kubernetes' own quantity
// parser interpret it.
func FormatQuantity(bytes int64) string {
	return strconv.FormatInt(bytes, 10)
}
