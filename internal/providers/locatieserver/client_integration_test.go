//go:build integration

package locatieserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/arbakker/pdok-services/internal/httpclient"
)

func TestClient_Free_Integration(t *testing.T) {
	fetcher := httpclient.New("locatieserver", slog.Default(), httpclient.Options{})
	client := NewClient(DefaultBaseURL, fetcher, slog.Default())

	t.Logf("Making API call to PDOK Locatieserver...")

	docs, err := client.Free(context.Background(), "Domplein 29 Utrecht", NewTypeFilter(Adres), 1)
	if err != nil {
		t.Fatalf("Failed to search: %v", err)
	}

	rawJSON, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal response: %v", err)
	}
	t.Logf("Raw API Response:\n%s", string(rawJSON))

	if len(docs) == 0 {
		t.Fatal("No docs returned")
	}
	if docs[0].CentroideLL == "" {
		t.Error("centroide_ll is empty")
	}

	doc, err := client.Lookup(context.Background(), docs[0].ID, ProjectionRD)
	if err != nil {
		t.Fatalf("Failed to lookup %s: %v", docs[0].ID, err)
	}
	if _, err := doc.Geometry(ProjectionRD); err != nil {
		t.Errorf("Failed to parse geometrie_rd: %v", err)
	}

	reverse, err := client.Reverse(context.Background(), 5.1214, 52.0907, NewTypeFilter(Adres), 1)
	if err != nil {
		t.Fatalf("Failed to reverse geocode: %v", err)
	}
	if len(reverse) == 0 {
		t.Fatal("No reverse results")
	}
	t.Logf("  Nearest address: %s (%.1f m)", reverse[0].Weergavenaam, reverse[0].Afstand)
}
