package session

import (
	"fmt"
	"testing"

	"github.com/voyago/farescout/pkg/models"
)

func nRecords(n int) []models.FlightRecord {
	records := make([]models.FlightRecord, n)
	for i := range records {
		records[i] = models.FlightRecord{Carrier: fmt.Sprintf("C%02d", i)}
	}
	return records
}

func TestPagination(t *testing.T) {
	s := NewSession(10)
	s.SetResults(nRecords(23))

	if s.PageCount() != 3 {
		t.Fatalf("expected 3 pages, got %d", s.PageCount())
	}

	// Page 0: records [0:10)
	page := s.Page()
	if len(page) != 10 || page[0].Carrier != "C00" || page[9].Carrier != "C09" {
		t.Errorf("unexpected page 0: len=%d", len(page))
	}

	// Prev is a no-op at the first page.
	if s.Prev() {
		t.Error("Prev must be a no-op at page 0")
	}
	if s.PageIndex() != 0 {
		t.Errorf("page index moved to %d", s.PageIndex())
	}

	// Page 1: records [10:20)
	if !s.Next() {
		t.Fatal("Next from page 0 should advance")
	}
	page = s.Page()
	if len(page) != 10 || page[0].Carrier != "C10" {
		t.Errorf("unexpected page 1: len=%d first=%s", len(page), page[0].Carrier)
	}

	// Page 2: records [20:23)
	if !s.Next() {
		t.Fatal("Next from page 1 should advance")
	}
	page = s.Page()
	if len(page) != 3 || page[0].Carrier != "C20" || page[2].Carrier != "C22" {
		t.Errorf("unexpected page 2: len=%d", len(page))
	}

	// Next is a no-op at the last page.
	if s.Next() {
		t.Error("Next must be a no-op at the last page")
	}
	if s.PageIndex() != 2 {
		t.Errorf("page index moved to %d", s.PageIndex())
	}

	if s.Prev() != true || s.PageIndex() != 1 {
		t.Errorf("Prev should step back to page 1, at %d", s.PageIndex())
	}
}

func TestSetResultsResetsPage(t *testing.T) {
	s := NewSession(10)
	s.SetResults(nRecords(23))
	s.Next()
	s.Next()

	s.SetResults(nRecords(5))
	if s.PageIndex() != 0 {
		t.Errorf("new results must reset to page 0, got %d", s.PageIndex())
	}
	if len(s.Page()) != 5 {
		t.Errorf("expected 5 records on page 0, got %d", len(s.Page()))
	}
}

func TestEmptyResults(t *testing.T) {
	s := NewSession(10)
	if s.PageCount() != 0 || len(s.Page()) != 0 {
		t.Errorf("empty session should have no pages")
	}
	if s.Next() || s.Prev() {
		t.Error("page transitions must be no-ops without results")
	}
}

func TestCatalogCache(t *testing.T) {
	s := NewSession(0)

	if _, built := s.Catalog(); built {
		t.Error("catalog should start unbuilt")
	}

	s.SetCatalog([]string{"MADRID", "PARIS"})
	names, built := s.Catalog()
	if !built || len(names) != 2 {
		t.Errorf("unexpected catalog: %v %v", names, built)
	}

	// An empty build result still counts as built.
	s2 := NewSession(0)
	s2.SetCatalog(nil)
	if _, built := s2.Catalog(); !built {
		t.Error("empty catalog should still be marked built")
	}
}

func TestManagerSessionLifecycle(t *testing.T) {
	m := NewManager(0)

	s := m.Create()
	if s.ID == "" {
		t.Fatal("expected a session ID")
	}
	if got := m.Get(s.ID); got != s {
		t.Error("Get should return the created session")
	}

	if got := m.GetOrCreate(s.ID); got != s {
		t.Error("GetOrCreate should reuse a live session")
	}
	fresh := m.GetOrCreate("unknown-id")
	if fresh == s || fresh.ID == s.ID {
		t.Error("unknown ID should create a fresh session")
	}
	if m.Len() != 2 {
		t.Errorf("expected 2 sessions, got %d", m.Len())
	}

	m.Delete(s.ID)
	if m.Get(s.ID) != nil {
		t.Error("deleted session should be gone")
	}
}
