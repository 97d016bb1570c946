package handler

import (
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

type preferencesEnvelope struct {
	Preferences preferencesResponse `json:"preferences"`
	Converted   bool                `json:"converted"`
}

func TestGetAndUpdatePreferences(t *testing.T) {
	api, _ := setupTestAPI(t)

	w := performRequest(t, api.GetPreferences, http.MethodGet, "/api/preferences", nil, nil)
	var current preferencesEnvelope
	decodeBody(t, w, &current)
	if current.Preferences.DailyGoal != 2500 || current.Preferences.VolumeUnit != "ml" {
		t.Fatalf("unexpected default preferences: %#v", current.Preferences)
	}

	w = performRequest(t, api.UpdatePreferences, http.MethodPut, "/api/preferences", map[string]any{
		"daily_goal":  3000,
		"username":    "Deniz",
		"user_weight": 80,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated preferencesEnvelope
	decodeBody(t, w, &updated)
	if updated.Preferences.DailyGoal != 3000 || updated.Preferences.Username != "Deniz" {
		t.Fatalf("unexpected updated preferences: %#v", updated.Preferences)
	}
	if updated.Preferences.UserWeight == nil || *updated.Preferences.UserWeight != 80 {
		t.Fatalf("expected weight 80, got %v", updated.Preferences.UserWeight)
	}

	w = performRequest(t, api.UpdatePreferences, http.MethodPut, "/api/preferences", map[string]any{"notification_frequency": 0}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for invalid frequency, got %d", w.Code)
	}

	w = performRequest(t, api.GetSuggestedIntake, http.MethodGet, "/api/preferences/suggested-intake", nil, nil)
	var suggested struct {
		Suggested float64 `json:"suggested"`
		Unit      string  `json:"unit"`
	}
	decodeBody(t, w, &suggested)
	if suggested.Suggested != 2800 || suggested.Unit != "ml" {
		t.Fatalf("expected 2800 ml suggestion, got %#v", suggested)
	}
}

func TestSetUnitSystemConvertsOnce(t *testing.T) {
	api, _ := setupTestAPI(t)

	w := performRequest(t, api.SetUnitSystem, http.MethodPost, "/api/preferences/units", map[string]any{"use_metric_system": false}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var imperial preferencesEnvelope
	decodeBody(t, w, &imperial)
	if !imperial.Converted || imperial.Preferences.VolumeUnit != "oz" {
		t.Fatalf("expected conversion to ounces, got %#v", imperial)
	}
	if math.Abs(imperial.Preferences.DailyGoal-84.535) > 1e-9 {
		t.Fatalf("expected goal 84.535 oz, got %v", imperial.Preferences.DailyGoal)
	}

	w = performRequest(t, api.SetUnitSystem, http.MethodPost, "/api/preferences/units", map[string]any{"use_metric_system": false}, nil)
	var again preferencesEnvelope
	decodeBody(t, w, &again)
	if again.Converted || again.Preferences.DailyGoal != imperial.Preferences.DailyGoal {
		t.Fatalf("expected repeated switch to be a no-op, got %#v", again)
	}

	w = performRequest(t, api.SetUnitSystem, http.MethodPost, "/api/preferences/units", map[string]any{}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 without use_metric_system, got %d", w.Code)
	}
}

func TestResetPreferences(t *testing.T) {
	api, _ := setupTestAPI(t)

	performRequest(t, api.UpdatePreferences, http.MethodPut, "/api/preferences", map[string]any{"is_dark_mode": true}, nil)
	w := performRequest(t, api.ResetPreferences, http.MethodPost, "/api/preferences/reset", nil, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var reset preferencesEnvelope
	decodeBody(t, w, &reset)
	if reset.Preferences.IsDarkMode || reset.Preferences.DailyGoal != 2500 {
		t.Fatalf("expected defaults after reset, got %#v", reset.Preferences)
	}
}

func TestUpdatePreferencesAutoLanguage(t *testing.T) {
	api, _ := setupTestAPI(t)

	cases := []struct {
		header string
		want   string
	}{
		{header: "tr-TR,tr;q=0.9", want: "tr"},
		{header: "fr-FR", want: "en"},
	}

	for _, tc := range cases {
		t.Run(tc.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPut, "/api/preferences", strings.NewReader(`{"selected_language":"auto"}`))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept-Language", tc.header)

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = req
			api.UpdatePreferences(c)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
			}
			var updated preferencesEnvelope
			decodeBody(t, w, &updated)
			if updated.Preferences.SelectedLanguage != tc.want {
				t.Fatalf("expected language %q, got %q", tc.want, updated.Preferences.SelectedLanguage)
			}
		})
	}
}
