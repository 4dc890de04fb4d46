package deliverynote

import (
	"fmt"
	"strings"
	"time"

	"glasswork-backend/internal/models"
)

// IncompleteProcess: one process step that has not reached "completed"
type IncompleteProcess struct {
	ItemName    string                   `json:"item_name"`
	Material    string                   `json:"material"`
	ProcessName string                   `json:"process_name"`
	Status      models.ProcessStepStatus `json:"status"`
}

// ProcessAnalysis: side-effect-free classification of every process step on
// an order, shown to the user before a delivery note is generated.
type ProcessAnalysis struct {
	IncompleteProcesses []IncompleteProcess `json:"incomplete_processes"`
	TotalIncomplete     int                 `json:"total_incomplete"`
	AllProcesses        int                 `json:"all_processes"`
}

// AnalyzeProcessCompletion inspects every process step across every
// item/material of the order. Writes nothing.
func AnalyzeProcessCompletion(order models.WorkOrder) ProcessAnalysis {
	analysis := ProcessAnalysis{
		IncompleteProcesses: []IncompleteProcess{},
	}

	for _, item := range order.Items {
		for _, material := range item.Materials {
			for _, step := range material.ProcessSteps {
				analysis.AllProcesses++
				if step.Status != models.StepStatusCompleted {
					analysis.TotalIncomplete++
					analysis.IncompleteProcesses = append(analysis.IncompleteProcesses, IncompleteProcess{
						ItemName:    item.ProductName,
						Material:    material.Name,
						ProcessName: step.Name,
						Status:      step.Status,
					})
				}
			}
		}
	}

	return analysis
}

// NewDeliveryNumber builds a DNyymmdd-NNNNNN number; the suffix is the
// trailing six digits of the unix timestamp, so uniqueness is probabilistic.
func NewDeliveryNumber(now time.Time) string {
	return fmt.Sprintf("DN%s-%06d", now.Format("060102"), now.Unix()%1000000)
}

// BuildDeliveryNote snapshots the order's items into a shipping document.
// The snapshot is frozen at generation time and never re-linked to the
// order. Materials lists only the names flagged for the delivery note.
func BuildDeliveryNote(order models.WorkOrder, deliveryNumber, notes string) models.DeliveryNote {
	note := models.DeliveryNote{
		DeliveryNumber: deliveryNumber,
		WorkOrderID:    order.ID,
		ClientID:       order.ClientID,
		Status:         models.DeliveryNoteStatusGenerated,
		Notes:          notes,
	}

	for _, item := range order.Items {
		var materialNames []string
		for _, m := range item.Materials {
			if m.ShowOnDeliveryNote {
				materialNames = append(materialNames, m.Name)
			}
		}

		note.Items = append(note.Items, models.DeliveryNoteItem{
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			Width:       item.Width,
			Height:      item.Height,
			Area:        item.Area,
			Materials:   strings.Join(materialNames, ", "),
			Notes:       item.Notes,
		})
	}

	return note
}
