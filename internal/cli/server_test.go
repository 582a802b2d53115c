package cli

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sonic-ru/zbxdash/internal/registry"
	"github.com/sonic-ru/zbxdash/internal/ui"
)

func TestRenderServers(t *testing.T) {
	servers := []registry.Server{
		{ID: 1, Name: "prod", URL: "https://zbx.example.com", AuthMode: registry.AuthPassword},
		{ID: 2, Name: "staging", URL: "https://stage.example.com", AuthMode: registry.AuthAPIKey},
	}

	out := renderServers(servers, 2)

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "URL")
	assert.Contains(t, out, "AUTH")
	assert.Contains(t, out, "prod")
	assert.Contains(t, out, "staging")
	assert.Contains(t, out, "apikey")

	// Only the selected row carries the marker.
	var marked []string
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, ui.SymbolSelected) {
			marked = append(marked, line)
		}
	}
	assert.Len(t, marked, 1)
	assert.Contains(t, marked[0], "staging")
}

func TestRenderServersEmpty(t *testing.T) {
	assert.Empty(t, renderServers(nil, 0))
}
