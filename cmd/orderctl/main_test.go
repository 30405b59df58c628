package main

import (
	"bytes"
	"testing"

	"orderdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderSummary(t *testing.T) {
	orders := []models.Order{
		{DeliveryStatus: models.StatusDelivered, TotalPrice: 100},
		{DeliveryStatus: models.StatusPending, TotalPrice: 50},
		{DeliveryStatus: models.StatusCancelled, TotalPrice: 25.5},
	}

	var buf bytes.Buffer
	require.NoError(t, renderSummary(&buf, orders))

	out := buf.String()
	assert.Contains(t, out, "Total orders")
	assert.Contains(t, out, "175.50")
	assert.Contains(t, out, string(models.StatusCancelled))
}
