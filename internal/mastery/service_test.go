package mastery

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studyroom/internal/models"
)

func masteryServer(t *testing.T, responses map[string]map[string]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PredictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mastery, ok := responses[req.UserID]
		if !ok {
			http.Error(w, "unknown user", http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(PredictResponse{Mastery: mastery})
	}))
}

func member(userID string) models.Member {
	return models.Member{
		ConnectionID: "conn-" + userID,
		User:         models.User{ID: userID, Name: userID},
		JoinedAt:     time.Now(),
	}
}

func TestClientPredict(t *testing.T) {
	server := masteryServer(t, map[string]map[string]float64{
		"u1": {"loops": 0.7},
	})
	defer server.Close()

	client := NewClient(server.URL, nil)
	mastery, err := client.Predict(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mastery["loops"] != 0.7 {
		t.Fatalf("unexpected mastery: %#v", mastery)
	}
}

func TestClientPredictServiceError(t *testing.T) {
	server := masteryServer(t, nil)
	defer server.Close()

	client := NewClient(server.URL, nil)
	if _, err := client.Predict(context.Background(), "u1", nil); err == nil {
		t.Fatalf("expected error from failing service")
	}
}

func TestCollectPartialFailureIsolation(t *testing.T) {
	server := masteryServer(t, map[string]map[string]float64{
		"u1": {"loops": 0.6},
		"u2": {"loops": 0.8},
		// u3 missing: its query fails
	})
	defer server.Close()

	svc := NewService(NewClient(server.URL, nil), nil)
	gm := svc.Collect(context.Background(), []models.Member{member("u1"), member("u2"), member("u3")}, nil)

	if len(gm.Individual) != 3 {
		t.Fatalf("expected an entry per queried member, got %d", len(gm.Individual))
	}
	if failed := gm.Individual["u3"]; len(failed) != 0 {
		t.Fatalf("expected empty mastery for failed member, got %#v", failed)
	}

	// Aggregate comes only from the two successful responses.
	stats := gm.Aggregate["loops"]
	if math.Abs(stats.Mean-0.7) > 1e-9 || stats.Min != 0.6 || stats.Max != 0.8 {
		t.Fatalf("unexpected aggregate: %#v", stats)
	}
	if gm.UpdatedAt.IsZero() {
		t.Fatalf("expected updatedAt to be set")
	}
}

func TestCollectPassesPriorMastery(t *testing.T) {
	var gotPrior map[string]float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req PredictRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotPrior = req.PriorMastery
		_ = json.NewEncoder(w).Encode(PredictResponse{Mastery: map[string]float64{"loops": 0.9}})
	}))
	defer server.Close()

	svc := NewService(NewClient(server.URL, nil), nil)
	prior := &models.GroupMastery{Individual: map[string]map[string]float64{
		"u1": {"loops": 0.5},
	}}
	svc.Collect(context.Background(), []models.Member{member("u1")}, prior)

	if gotPrior["loops"] != 0.5 {
		t.Fatalf("expected prior mastery forwarded, got %#v", gotPrior)
	}
}
