// Package export renders progress data as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"skilltracker/backend/models"
	"skilltracker/backend/progress"
)

const (
	LogsSheet   = "Progress Logs"
	WeeklySheet = "Weekly Activity"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var logHeader = []interface{}{"Date", "Skill", "Goal", "Title", "Hours", "Quality", "Milestones completed", "Notes"}
var weeklyHeader = []interface{}{"Week", "From", "To", "Hours"}

// WriteProgressWorkbook writes one sheet with every log and one with the
// weekly buckets, then streams the workbook to w.
func WriteProgressWorkbook(w io.Writer, logs []models.ProgressLogDTO, weeks []progress.WeekBucket) error {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", LogsSheet)
	if err := f.SetSheetRow(LogsSheet, "A1", &logHeader); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	for i, l := range logs {
		quality := interface{}("")
		if l.QualityRating != nil {
			quality = *l.QualityRating
		}
		row := []interface{}{l.LogDate, l.SkillName, l.GoalTitle, l.Title, l.HoursLogged, quality, len(l.CompletedMilestoneIDs), l.Description}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(LogsSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write log %d: %v", l.ID, err)
		}
	}

	if _, err := f.NewSheet(WeeklySheet); err != nil {
		return fmt.Errorf("failed to add sheet: %v", err)
	}
	if err := f.SetSheetRow(WeeklySheet, "A1", &weeklyHeader); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	for i, b := range weeks {
		row := []interface{}{b.WeekLabel, b.WeekStart.Format(models.DateLayout), b.WeekEnd.Format(models.DateLayout), b.HoursLogged}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(WeeklySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write week %d: %v", b.WeekNumber, err)
		}
	}

	if err := f.SetColWidth(LogsSheet, "A", "H", 18); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %v", err)
	}
	return nil
}
