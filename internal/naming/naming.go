// Package naming derives Kubernetes-safe names for the per-project
// namespace and the DiskNaming objects, with no I/O, clock, or randomness.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const maxNameLength = 63

// namespacePrefix is prepended to every derived project namespace.
const namespacePrefix = "platform"

// hashLength is the number of hex characters of the SHA-256 digest kept in
// a derived namespace name.
const hashLength = 24

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

// sanitize lowercases s and replaces every run of non [a-z0-9] characters
// with a single hyphen, then trims leading/trailing hyphens.
func sanitize(s string) string {
	s = strings.ToLower(s)
	s = unsafeChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateNamespaceName derives the Kubernetes namespace name for an
// org/project pair: "platform--<org>--<project>--<hash24>", truncated to
// 63 characters by shrinking the org and project segments proportionally,
// never the hash suffix.
func GenerateNamespaceName(org, project string) string {
	org = sanitize(org)
	project = sanitize(project)

	sum := sha256.Sum256([]byte(org + "--" + project))
	hash := hex.EncodeToString(sum[:])[:hashLength]

	fixed := len(namespacePrefix) + len("--") + len("--") + len("--") + hashLength
	budget := maxNameLength - fixed
	if budget < 2 {
		budget = 2
	}

	org, project = splitBudget(org, project, budget)

	name := fmt.Sprintf("%s--%s--%s--%s", namespacePrefix, org, project, hash)
	return strings.Trim(name, "-")
}

// splitBudget shrinks a and b in proportion to their lengths so that
// len(a)+len(b) <= budget, leaving each at least one character.
func splitBudget(a, b string, budget int) (string, string) {
	if len(a)+len(b) <= budget {
		return a, b
	}
	na := budget * len(a) / (len(a) + len(b))
	if na < 1 {
		na = 1
	}
	if na > budget-1 {
		na = budget - 1
	}
	return truncate(a, na), truncate(b, budget-na)
}

func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}

// DiskNamingName derives the name of the DiskNaming object that maps a
// human-chosen disk name to its underlying PVC name (the disk ID), scoped to an
// org/project pair: "<disk>--<org>--<project>".
func DiskNamingName(diskName, org, project string) string {
	return fmt.Sprintf("%s--%s--%s", sanitize(diskName), sanitize(org), sanitize(project))
}
