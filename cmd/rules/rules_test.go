package rules

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	catalog "github.com/scan-io-git/leakscan/internal/rules"
)

func TestPrintCatalog(t *testing.T) {
	rules := []catalog.Rule{
		{Name: "AWSKey", Patterns: []string{"AKIA[0-9A-Z]{16}"}},
		{Name: "Twitter", Patterns: []string{"a", "b"}},
	}

	var buf bytes.Buffer
	printCatalog(&buf, "custom.json", rules, false)
	assert.Equal(t, "Catalog: custom.json\n  AWSKey (1 pattern)\n  Twitter (2 patterns)\nTotal: 2 rules, 3 patterns\n", buf.String())

	buf.Reset()
	printCatalog(&buf, "custom.json", rules[:1], true)
	assert.Equal(t, "Catalog: custom.json\n  AWSKey (1 pattern)\n      AKIA[0-9A-Z]{16}\nTotal: 1 rules, 1 patterns\n", buf.String())
}
