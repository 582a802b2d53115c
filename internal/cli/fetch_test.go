package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sonic-ru/zbxdash/internal/aggregate"
)

func TestRenderProblems(t *testing.T) {
	records := []aggregate.Record{
		{
			ID:            "101",
			Name:          "Disk full on /var",
			Severity:      4,
			SeverityClass: aggregate.ClassHigh,
			HostID:        "7",
			HostName:      "web-01",
			StartedAt:     time.Unix(1700000000, 0),
			Age:           "1 hour",
			Acknowledged:  true,
		},
		{
			ID:            "102",
			Name:          "High swap usage",
			Severity:      2,
			SeverityClass: aggregate.ClassWarning,
			HostID:        "9",
			HostName:      "Host-9",
			Age:           "3 days",
			InMaintenance: true,
		},
	}

	out := renderProblems(records)

	assert.Contains(t, out, "SEVERITY")
	assert.Contains(t, out, "web-01")
	assert.Contains(t, out, "Disk full on /var")
	assert.Contains(t, out, "High")
	assert.Contains(t, out, "Host-9")
	assert.Contains(t, out, "(ack)")
	assert.Contains(t, out, "(maintenance)")
	assert.Contains(t, out, "1 hour")
}
