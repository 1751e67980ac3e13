package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/vnkhanh/onboarding-backend/utils"
)

func newTestTopics(t *testing.T) (*TopicService, utils.FileStore) {
	t.Helper()
	db := newTestDB(t)
	store, err := utils.NewLocalStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	return NewTopicService(db, store, discardLogger()), store
}

func TestCreateAndUpdateTopic(t *testing.T) {
	svc, _ := newTestTopics(t)
	ctx := context.Background()

	topic, err := svc.CreateTopic(ctx, TopicInput{Title: " Power BI ", Category: "Análise de Dados", EstimatedTime: "3h"})
	if err != nil {
		t.Fatalf("CreateTopic: %v", err)
	}
	if topic.Title != "Power BI" || topic.Slug != "power-bi" || !topic.Active {
		t.Fatalf("unexpected topic %+v", topic)
	}

	if _, err := svc.CreateTopic(ctx, TopicInput{Title: "power bi"}); !errors.Is(err, ErrTopicExists) || !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrTopicExists, got %v", err)
	}
	if _, err := svc.CreateTopic(ctx, TopicInput{Title: "Go", EstimatedTime: "soon"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for bad estimate, got %v", err)
	}

	inactive := false
	updated, err := svc.UpdateTopic(ctx, topic.ID, TopicInput{Title: "Power BI Avançado", EstimatedTime: "90min", Active: &inactive})
	if err != nil {
		t.Fatalf("UpdateTopic: %v", err)
	}
	if updated.Slug != "power-bi-avancado" || updated.Active || updated.EstimatedTime != "90min" {
		t.Fatalf("unexpected update %+v", updated)
	}
	if _, err := svc.UpdateTopic(ctx, 999, TopicInput{Title: "x"}); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}

	toggled, err := svc.ToggleTopicStatus(ctx, topic.ID)
	if err != nil || !toggled.Active {
		t.Fatalf("expected topic re-enabled, got %+v, %v", toggled, err)
	}
}

func TestListAndSearchTopics(t *testing.T) {
	svc, _ := newTestTopics(t)
	ctx := context.Background()
	for _, title := range []string{"Docker", "Kubernetes", "Docker Compose", "React"} {
		if _, err := svc.CreateTopic(ctx, TopicInput{Title: title, EstimatedTime: "1h"}); err != nil {
			t.Fatalf("CreateTopic %s: %v", title, err)
		}
	}
	if _, err := svc.ToggleTopicStatus(ctx, 2); err != nil {
		t.Fatal(err)
	}

	list, err := svc.ListTopics(ctx)
	if err != nil {
		t.Fatalf("ListTopics: %v", err)
	}
	if len(list) != 3 || list[0].Title != "Docker" || list[1].Title != "Docker Compose" {
		t.Fatalf("unexpected active list %+v", list)
	}

	page, err := svc.SearchTopics(ctx, TopicFilter{Search: "docker", Page: 1, Limit: 1})
	if err != nil {
		t.Fatalf("SearchTopics: %v", err)
	}
	if page.Total != 2 || len(page.Data) != 1 || page.Data[0].Title != "Docker" {
		t.Fatalf("unexpected page %+v", page)
	}
	page, _ = svc.SearchTopics(ctx, TopicFilter{Search: "docker", Page: 2, Limit: 1})
	if len(page.Data) != 1 || page.Data[0].Title != "Docker Compose" {
		t.Fatalf("unexpected second page %+v", page)
	}

	active := false
	page, _ = svc.SearchTopics(ctx, TopicFilter{Active: &active})
	if page.Total != 1 || page.Data[0].Title != "Kubernetes" || page.Limit != 10 {
		t.Fatalf("unexpected inactive filter %+v", page)
	}
}

func TestAddTopicResources(t *testing.T) {
	svc, store := newTestTopics(t)
	ctx := context.Background()
	topic, err := svc.CreateTopic(ctx, TopicInput{Title: "SQL Server", EstimatedTime: "2h"})
	if err != nil {
		t.Fatal(err)
	}

	doc, err := svc.AddTopicDocument(ctx, topic.ID, "", "guia.txt", strings.NewReader("SELECT 1"))
	if err != nil {
		t.Fatalf("AddTopicDocument: %v", err)
	}
	if doc.Title != "guia" || doc.Type != "doc" || doc.Size != "8 B" {
		t.Fatalf("unexpected document %+v", doc)
	}
	name := strings.TrimPrefix(doc.URL, utils.DownloadURL(""))
	rc, err := store.Open(ctx, name)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "SELECT 1" {
		t.Fatalf("unexpected stored content %q", data)
	}

	pdf, err := svc.AddTopicDocument(ctx, topic.ID, "Manual", "manual.pdf", strings.NewReader("not really a pdf"))
	if err != nil {
		t.Fatalf("AddTopicDocument pdf: %v", err)
	}
	if pdf.Type != "pdf" || pdf.Pages != 0 {
		t.Fatalf("unreadable pdf should be stored with zero pages, got %+v", pdf)
	}

	if _, err := svc.AddTopicDocument(ctx, 999, "x", "x.txt", strings.NewReader("x")); !errors.Is(err, ErrTopicNotFound) {
		t.Fatalf("expected ErrTopicNotFound, got %v", err)
	}

	if _, err := svc.AddTopicLink(ctx, topic.ID, LinkInput{Title: "Docs", URL: "https://docs.microsoft.com/sql"}); err != nil {
		t.Fatalf("AddTopicLink: %v", err)
	}
	contact, err := svc.AddTopicContact(ctx, topic.ID, ContactInput{Name: "Ana Silva", Email: "Ana.Silva@vivo.com"})
	if err != nil {
		t.Fatalf("AddTopicContact: %v", err)
	}
	if contact.Email != "ana.silva@vivo.com" {
		t.Fatalf("contact email not normalized: %s", contact.Email)
	}

	full, err := svc.GetTopic(ctx, topic.ID)
	if err != nil {
		t.Fatalf("GetTopic: %v", err)
	}
	if len(full.Documents) != 2 || len(full.Links) != 1 || len(full.Contacts) != 1 {
		t.Fatalf("resources not attached: %+v", full)
	}
}
