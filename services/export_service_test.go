package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/vnkhanh/onboarding-backend/models"
)

func TestExportTeamProgress(t *testing.T) {
	db := newTestDB(t)
	devProfile := createProfile(t, db, "Desenvolvimento", models.RoleMember)
	ana := createAccount(t, db, "ana@vivo.com.br", "Senha@123", devProfile, true)
	createAccount(t, db, "bruno@vivo.com.br", "Senha@123", devProfile, true)
	topic := createTopic(t, db, "Docker", "2h", true)
	createTopic(t, db, "Angular", "4h", true)

	progress := NewProgressService(db, true, discardLogger())
	ctx := context.Background()
	if _, err := progress.MarkTopicCompleted(ctx, ana.ID, topic.ID); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := NewExportService(progress).ExportTeamProgress(ctx, &buf); err != nil {
		t.Fatalf("ExportTeamProgress: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Name" || rows[0][8] != "Status" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	found := false
	for _, row := range rows[1:] {
		if row[1] == "ana@vivo.com.br" {
			found = true
			if row[5] != "1" || row[6] != "2" || row[7] != "50" || row[8] != StatusInProgress {
				t.Fatalf("unexpected row for ana: %v", row)
			}
		}
	}
	if !found {
		t.Fatal("ana missing from export")
	}
}
