package deliverynote

import (
	"strings"
	"testing"
	"time"

	"glasswork-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWithSteps() models.WorkOrder {
	return models.WorkOrder{
		ID:          42,
		OrderNumber: "WO260828-000123",
		ClientID:    7,
		Status:      models.WorkOrderStatusInProgress,
		Items: []models.WorkOrderItem{
			{
				ProductName: "Tempered glass",
				Quantity:    2,
				Width:       500,
				Height:      1000,
				Area:        0.5,
				Materials: []models.ItemMaterial{
					{
						Name:               "Float glass 6mm",
						ShowOnDeliveryNote: true,
						ProcessSteps: []models.ItemProcessStep{
							{Name: "Cutting", Status: models.StepStatusCompleted},
							{Name: "Edging", Status: models.StepStatusInProgress},
							{Name: "Tempering", Status: models.StepStatusPending},
						},
					},
					{
						Name:               "Protective film",
						ShowOnDeliveryNote: false,
						ProcessSteps: []models.ItemProcessStep{
							{Name: "Application", Status: models.StepStatusCompleted},
							{Name: "Trimming", Status: models.StepStatusPending},
						},
					},
				},
			},
		},
	}
}

func TestAnalyzeProcessCompletion(t *testing.T) {
	analysis := AnalyzeProcessCompletion(orderWithSteps())

	assert.Equal(t, 5, analysis.AllProcesses)
	assert.Equal(t, 3, analysis.TotalIncomplete)
	require.Len(t, analysis.IncompleteProcesses, 3)

	first := analysis.IncompleteProcesses[0]
	assert.Equal(t, "Tempered glass", first.ItemName)
	assert.Equal(t, "Float glass 6mm", first.Material)
	assert.Equal(t, "Edging", first.ProcessName)
	assert.Equal(t, models.StepStatusInProgress, first.Status)
}

func TestAnalyzeProcessCompletionAllDone(t *testing.T) {
	order := orderWithSteps()
	for i := range order.Items {
		for j := range order.Items[i].Materials {
			for k := range order.Items[i].Materials[j].ProcessSteps {
				order.Items[i].Materials[j].ProcessSteps[k].Status = models.StepStatusCompleted
			}
		}
	}

	analysis := AnalyzeProcessCompletion(order)
	assert.Equal(t, 5, analysis.AllProcesses)
	assert.Zero(t, analysis.TotalIncomplete)
	assert.Empty(t, analysis.IncompleteProcesses)
}

func TestAnalyzeProcessCompletionNoSteps(t *testing.T) {
	analysis := AnalyzeProcessCompletion(models.WorkOrder{})
	assert.Zero(t, analysis.AllProcesses)
	assert.Zero(t, analysis.TotalIncomplete)
	assert.NotNil(t, analysis.IncompleteProcesses)
}

func TestBuildDeliveryNoteSnapshotsItems(t *testing.T) {
	order := orderWithSteps()

	note := BuildDeliveryNote(order, "DN260828-000456", "leave at gate")

	assert.Equal(t, "DN260828-000456", note.DeliveryNumber)
	assert.Equal(t, order.ID, note.WorkOrderID)
	assert.Equal(t, order.ClientID, note.ClientID)
	assert.Equal(t, models.DeliveryNoteStatusGenerated, note.Status)
	assert.Equal(t, "leave at gate", note.Notes)

	require.Len(t, note.Items, 1)
	item := note.Items[0]
	assert.Equal(t, "Tempered glass", item.ProductName)
	assert.Equal(t, 2, item.Quantity)
	assert.InDelta(t, 0.5, item.Area, 1e-9)
	// Only materials flagged for the document appear
	assert.Equal(t, "Float glass 6mm", item.Materials)
}

func TestNewDeliveryNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	number := NewDeliveryNumber(now)

	assert.True(t, strings.HasPrefix(number, "DN260828-"))
	assert.Len(t, number, len("DN260828-")+6)
}
