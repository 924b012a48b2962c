package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/solar-crm/internal/catalog"
	"github.com/sells-group/solar-crm/internal/service"
	"github.com/sells-group/solar-crm/pkg/solar"
	"github.com/sells-group/solar-crm/pkg/solar/mocks"
)

func TestPrintCatalog(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printCatalog(&buf, cat))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, cat.Len()+1)
	assert.True(t, strings.HasPrefix(lines[0], "MODEL"))
	assert.Contains(t, buf.String(), "rec-alpha-pure-r-430")
}

func TestPrintRecomputeSummary(t *testing.T) {
	data, err := os.ReadFile(fixturePath)
	require.NoError(t, err)
	bi, err := solar.ParseBuildingInsight(data)
	require.NoError(t, err)

	client := mocks.NewMockClient(t)
	client.On("FindClosest", mock.Anything, mock.Anything, "HIGH").Return(bi, nil).Once()

	rc, err := service.New(client).Recompute(context.Background(), service.RecomputeRequest{
		Latitude:           37.4449439,
		Longitude:          -122.1391165,
		PanelCapacityWatts: 450,
		PanelHeightMeters:  2,
		PanelWidthMeters:   1,
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printRecomputeSummary(&buf, rc))
	out := buf.String()

	assert.Contains(t, out, "Building:    "+bi.Name)
	assert.Contains(t, out, "Max panels:  50")
	assert.Contains(t, out, "PANELS")

	var counts []string
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) == 4 && fields[0] != "PANELS" {
			counts = append(counts, fields[0])
		}
	}
	assert.Equal(t, []string{"12", "25", "37", "50"}, counts)
}
