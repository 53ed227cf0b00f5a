package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	names := cat.Names()
	assert.Equal(t, []string{"GDPR", "HIPAA", "ISO_27001", "NIST_800_53", "OWASP_ASVS", "PCI_DSS", "SOX"}, names)

	for _, name := range names {
		std := cat.Standard(name)
		require.NotNil(t, std, name)
		assert.NotEmpty(t, std.Controls, name)
		assert.NotEmpty(t, std.Categories, name)
	}
}

func TestCatalog_CategoryPrefixes(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"V2", "V3", "V4"},
		cat.CategoryPrefixes("OWASP_ASVS", "Authentication & Access Control"))
	assert.Nil(t, cat.CategoryPrefixes("OWASP_ASVS", "Unknown Category"))
	assert.Nil(t, cat.CategoryPrefixes("NO_SUCH_STANDARD", "Data Protection"))
}

func TestStandard_ControlsByPrefix(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	std := cat.Standard("NIST_800_53")
	require.NotNil(t, std)

	acControls := std.ControlsByPrefix("AC")
	require.NotEmpty(t, acControls)
	for _, c := range acControls {
		assert.Contains(t, c.ControlID, "AC")
	}

	assert.Empty(t, std.ControlsByPrefix("ZZ"))
}
