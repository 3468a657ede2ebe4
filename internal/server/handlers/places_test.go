package handlers

import (
	"errors"
	"net/http"
	"testing"

	"github.com/r-Iyer/MapMyMemories/internal/ledger"
	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
)

func writeLedger(t *testing.T, svc *Services, username string, records []ledger.Record) {
	t.Helper()
	data, err := ledger.Serialize(records)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Local.WriteLedger(username, data); err != nil {
		t.Fatal(err)
	}
}

func TestListPlacesUnknownUser(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler(newTestServices(t))
	_, err := h.ListPlaces(t.Context(), &dto.ListPlacesRequest{Username: "nobody"})
	if err == nil {
		t.Fatal("expected an error")
	}
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) || ews.StatusCode() != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestListPlacesReturnsLedgerRows(t *testing.T) {
	t.Parallel()
	svc := newTestServices(t)
	writeLedger(t, svc, "alice", []ledger.Record{
		{Username: "alice", Place: "Paris", State: "IDF", Country: "France", Latitude: "48.85", Longitude: "2.35", Picture: "/images/Paris.jpg"},
		{Username: "alice", Place: "Kyoto", Country: "Japan", Latitude: "35.01", Longitude: "135.77", Picture: "/images/Kyoto.jpg"},
	})

	h := NewPlacesHandler(svc)
	resp, err := h.ListPlaces(t.Context(), &dto.ListPlacesRequest{Username: "alice"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Username != "alice" {
		t.Errorf("Username = %q", resp.Username)
	}
	if len(resp.Places) != 2 {
		t.Fatalf("got %d places, want 2", len(resp.Places))
	}
	if resp.Places[0].Place != "Paris" || resp.Places[0].Picture != "/images/Paris.jpg" {
		t.Errorf("first place = %+v", resp.Places[0])
	}
	if resp.Places[1].Country != "Japan" {
		t.Errorf("second place = %+v", resp.Places[1])
	}
}

func TestGetHistoryWithoutAuditTrail(t *testing.T) {
	t.Parallel()
	h := NewPlacesHandler(newTestServices(t))
	_, err := h.GetHistory(t.Context(), &dto.HistoryRequest{Username: "alice"})
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) || ews.StatusCode() != http.StatusNotFound {
		t.Errorf("err = %v, want 404", err)
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()
	svc := newTestServices(t)
	h := NewUsersHandler(svc)

	resp, err := h.ListUsers(t.Context(), &dto.ListUsersRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Users) != 0 {
		t.Fatalf("Users = %v, want empty", resp.Users)
	}

	writeLedger(t, svc, "bob", []ledger.Record{
		{Username: "bob", Place: "Oslo", Country: "Norway", Latitude: "59.91", Longitude: "10.75", Picture: "/images/Oslo.jpg"},
	})
	writeLedger(t, svc, "alice", []ledger.Record{
		{Username: "alice", Place: "Paris", Country: "France", Latitude: "48.85", Longitude: "2.35", Picture: "/images/Paris.jpg"},
	})

	resp, err = h.ListUsers(t.Context(), &dto.ListUsersRequest{})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.Users) != 2 || resp.Users[0] != "alice" || resp.Users[1] != "bob" {
		t.Errorf("Users = %v, want [alice bob]", resp.Users)
	}
}
