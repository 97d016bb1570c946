package handler

import (
	"net/http"
	"testing"

	"github.com/drinkwell/internal/service"
	"github.com/gin-gonic/gin"
)

type scheduleEnvelope struct {
	Permission service.PermissionStatus `json:"permission"`
	Schedule   *service.ScheduleResult  `json:"schedule"`
}

func TestUpdateRemindersWithoutPermission(t *testing.T) {
	api, _ := setupTestAPI(t)

	w := performRequest(t, api.UpdateReminders, http.MethodPut, "/api/reminders", map[string]any{"enabled": true}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected permission no-op to return 200, got %d: %s", w.Code, w.Body.String())
	}
	var body scheduleEnvelope
	decodeBody(t, w, &body)
	if body.Schedule == nil || body.Schedule.State != service.StateDisabled || body.Schedule.Permission != service.PermissionNotDetermined {
		t.Fatalf("unexpected schedule without permission: %#v", body.Schedule)
	}
}

func TestReminderLifecycle(t *testing.T) {
	api, _ := setupTestAPI(t)

	w := performRequest(t, api.RequestPermission, http.MethodPost, "/api/reminders/permission", nil, nil)
	var permission scheduleEnvelope
	decodeBody(t, w, &permission)
	if permission.Permission != service.PermissionGranted {
		t.Fatalf("expected auto grant, got %s", permission.Permission)
	}

	w = performRequest(t, api.UpdateReminders, http.MethodPut, "/api/reminders", map[string]any{
		"enabled":    true,
		"frequency":  1,
		"start_hour": 8,
		"end_hour":   10,
	}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	var scheduled scheduleEnvelope
	decodeBody(t, w, &scheduled)
	if scheduled.Schedule == nil || len(scheduled.Schedule.Registered) != 3 {
		t.Fatalf("expected 3 reminders, got %#v", scheduled.Schedule)
	}

	w = performRequest(t, api.CreateCustomReminder, http.MethodPost, "/api/reminders/custom", map[string]any{
		"title":  "Afternoon tea",
		"hour":   16,
		"minute": 30,
	}, nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	var created struct {
		Reminder reminderResponse `json:"reminder"`
	}
	decodeBody(t, w, &created)
	if created.Reminder.Time != "16:30" {
		t.Fatalf("unexpected custom reminder: %#v", created.Reminder)
	}

	w = performRequest(t, api.GetReminders, http.MethodGet, "/api/reminders", nil, nil)
	var listed struct {
		State     service.ScheduleState `json:"state"`
		Reminders []reminderResponse    `json:"reminders"`
	}
	decodeBody(t, w, &listed)
	if listed.State != service.StateScheduled || len(listed.Reminders) != 4 {
		t.Fatalf("expected 4 reminders in scheduled state, got %s / %d", listed.State, len(listed.Reminders))
	}

	id := created.Reminder.Identifier
	w = performRequest(t, api.CancelReminder, http.MethodDelete, "/api/reminders/"+id, nil, gin.Params{{Key: "identifier", Value: id}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	w = performRequest(t, api.CancelReminder, http.MethodDelete, "/api/reminders/"+id, nil, gin.Params{{Key: "identifier", Value: id}})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 on second cancel, got %d", w.Code)
	}

	w = performRequest(t, api.SetPermission, http.MethodPut, "/api/reminders/permission", map[string]any{"status": "denied"}, nil)
	var revoked scheduleEnvelope
	decodeBody(t, w, &revoked)
	if revoked.Schedule == nil || revoked.Schedule.State != service.StateDisabled {
		t.Fatalf("expected revoke to disable reminders, got %#v", revoked.Schedule)
	}

	w = performRequest(t, api.SetPermission, http.MethodPut, "/api/reminders/permission", map[string]any{"status": "maybe"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown status, got %d", w.Code)
	}
}

func TestHandleReminderAction(t *testing.T) {
	api, _ := setupTestAPI(t)

	w := performRequest(t, api.HandleReminderAction, http.MethodPost, "/api/reminders/actions/DRANK_ACTION", nil, gin.Params{{Key: "action", Value: service.ActionDrank}})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if api.app.Intents.Len() != 1 {
		t.Fatalf("expected an open-add-intake intent, got %d", api.app.Intents.Len())
	}

	w = performRequest(t, api.HandleReminderAction, http.MethodPost, "/api/reminders/actions/SNOOZE", nil, gin.Params{{Key: "action", Value: "SNOOZE"}})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400 for unknown action, got %d", w.Code)
	}
}
