package naming

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNamespaceNameStable(t *testing.T) {
	a := GenerateNamespaceName("my-org", "my-project")
	b := GenerateNamespaceName("my-org", "my-project")
	assert.Equal(t, a, b, "must be deterministic")
	assert.True(t, strings.HasPrefix(a, "platform--my-org--my-project--"))
	assert.LessOrEqual(t, len(a), maxNameLength)
}

func TestGenerateNamespaceNameDiffersByProject(t *testing.T) {
	a := GenerateNamespaceName("org", "project-a")
	b := GenerateNamespaceName("org", "project-b")
	assert.NotEqual(t, a, b)
}

func TestGenerateNamespaceNameTruncatesLongNames(t *testing.T) {
	longOrg := strings.Repeat("x", 80)
	longProject := strings.Repeat("y", 80)
	name := GenerateNamespaceName(longOrg, longProject)
	require.LessOrEqual(t, len(name), maxNameLength)
	assert.True(t, strings.HasPrefix(name, "platform--"))
}

func TestGenerateNamespaceNameSanitizesInput(t *testing.T) {
	name := GenerateNamespaceName("My Org!!", "Proj_123")
	assert.True(t, strings.HasPrefix(name, "platform--my-org--proj-123--"))
}

func TestDiskNamingName(t *testing.T) {
	assert.Equal(t, "cache--my-org--my-project", DiskNamingName("cache", "my-org", "my-project"))
}

func TestDiskNamingNameSanitizes(t *testing.T) {
	assert.Equal(t, "my-disk--org--proj", DiskNamingName("My_Disk", "Org", "Proj"))
}
