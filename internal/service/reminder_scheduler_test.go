package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

type failingNotifier struct {
	*NotificationCenter
	failHours map[int]bool
}

func (n *failingNotifier) Register(ctx context.Context, trigger Trigger) error {
	if n.failHours[trigger.Hour] {
		return errors.New("platform rejected trigger")
	}
	return n.NotificationCenter.Register(ctx, trigger)
}

func setupGrantedCenter(t *testing.T, name string) *NotificationCenter {
	t.Helper()
	center := NewNotificationCenter(setupServiceTestDB(t, name), true)
	status, err := center.RequestAuthorization(context.Background())
	if err != nil {
		t.Fatalf("RequestAuthorization returned error: %v", err)
	}
	if status != PermissionGranted {
		t.Fatalf("expected granted permission, got %s", status)
	}
	return center
}

func pendingHours(t *testing.T, notifier Notifier) []int {
	t.Helper()
	triggers, err := notifier.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	hours := make([]int, 0, len(triggers))
	for _, trigger := range triggers {
		hours = append(hours, trigger.Hour)
	}
	return hours
}

func TestTriggerHours(t *testing.T) {
	cases := []struct {
		name      string
		frequency int
		start     int
		end       int
		want      []int
		wantErr   bool
	}{
		{name: "every two hours", frequency: 2, start: 8, end: 22, want: []int{8, 10, 12, 14, 16, 18, 20, 22}},
		{name: "every hour", frequency: 1, start: 8, end: 10, want: []int{8, 9, 10}},
		{name: "step past end", frequency: 5, start: 8, end: 22, want: []int{8, 13, 18}},
		{name: "single hour window", frequency: 3, start: 8, end: 8, want: []int{8}},
		{name: "zero frequency", frequency: 0, start: 8, end: 22, wantErr: true},
		{name: "inverted window", frequency: 2, start: 22, end: 8, wantErr: true},
		{name: "hour out of range", frequency: 2, start: 8, end: 24, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TriggerHours(tc.frequency, tc.start, tc.end)
			if tc.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TriggerHours returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestReminderSchedulerApplyRegistersTriggers(t *testing.T) {
	center := setupGrantedCenter(t, "reminder-apply")
	events := NewEventQueue(0)
	scheduler := NewReminderScheduler(center, events)

	result, err := scheduler.Apply(context.Background(), ReminderConfig{Enabled: true, Frequency: 2, StartHour: 8, EndHour: 22, Language: "en"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result.State != StateScheduled || scheduler.State() != StateScheduled {
		t.Fatalf("expected scheduled state, got %s", result.State)
	}
	if len(result.Registered) != 8 || len(scheduler.Triggers()) != 8 {
		t.Fatalf("expected 8 registered triggers, got %d", len(result.Registered))
	}

	triggers, err := center.Pending(context.Background())
	if err != nil {
		t.Fatalf("Pending returned error: %v", err)
	}
	if len(triggers) != 8 {
		t.Fatalf("expected 8 pending triggers, got %d", len(triggers))
	}
	first := triggers[0]
	if first.Identifier != "drinkwell.reminder_8" || first.Hour != 8 || first.Minute != 0 || !first.Repeats {
		t.Fatalf("unexpected first trigger: %#v", first)
	}
	if first.Category != ReminderCategory || first.Title != "Time to drink water" || first.Body == "" {
		t.Fatalf("unexpected trigger payload: %#v", first)
	}
}

func TestReminderSchedulerRecomputesInFull(t *testing.T) {
	center := setupGrantedCenter(t, "reminder-recompute")
	scheduler := NewReminderScheduler(center, nil)
	ctx := context.Background()

	if _, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 2, StartHour: 8, EndHour: 22}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if _, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 3, StartHour: 8, EndHour: 22}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := pendingHours(t, center); !reflect.DeepEqual(got, []int{8, 11, 14, 17, 20}) {
		t.Fatalf("expected stale triggers to be discarded, got %v", got)
	}

	if _, err := scheduler.Disable(ctx); err != nil {
		t.Fatalf("Disable returned error: %v", err)
	}
	if scheduler.State() != StateDisabled || len(pendingHours(t, center)) != 0 {
		t.Fatalf("expected no triggers after disable, got %v", pendingHours(t, center))
	}

	if _, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 4, StartHour: 8, EndHour: 22}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := pendingHours(t, center); !reflect.DeepEqual(got, []int{8, 12, 16, 20}) {
		t.Fatalf("expected re-enable to use the current frequency, got %v", got)
	}
}

func TestReminderSchedulerWithoutPermission(t *testing.T) {
	center := NewNotificationCenter(setupServiceTestDB(t, "reminder-no-permission"), false)
	events := NewEventQueue(0)
	scheduler := NewReminderScheduler(center, events)
	ctx := context.Background()

	result, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 2, StartHour: 8, EndHour: 22})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result.State != StateDisabled || result.Permission != PermissionNotDetermined {
		t.Fatalf("expected disabled no-op without permission, got %#v", result)
	}
	if len(pendingHours(t, center)) != 0 {
		t.Fatal("expected nothing to be registered without permission")
	}

	var denied bool
	for _, event := range events.Since(0) {
		if event.Kind == EventPermissionDenied {
			denied = true
		}
	}
	if !denied {
		t.Fatal("expected a permission denied event")
	}

	status, err := center.RequestAuthorization(ctx)
	if err != nil {
		t.Fatalf("RequestAuthorization returned error: %v", err)
	}
	if status != PermissionDenied {
		t.Fatalf("expected denied without auto grant, got %s", status)
	}
	if err := center.SetAuthorization(ctx, PermissionGranted); err != nil {
		t.Fatalf("SetAuthorization returned error: %v", err)
	}
	if status, _ := center.RequestAuthorization(ctx); status != PermissionGranted {
		t.Fatalf("expected explicit grant to stick, got %s", status)
	}
}

func TestReminderSchedulerPartialFailureIsNotRolledBack(t *testing.T) {
	notifier := &failingNotifier{
		NotificationCenter: setupGrantedCenter(t, "reminder-partial"),
		failHours:          map[int]bool{12: true},
	}
	events := NewEventQueue(0)
	scheduler := NewReminderScheduler(notifier, events)

	result, err := scheduler.Apply(context.Background(), ReminderConfig{Enabled: true, Frequency: 2, StartHour: 8, EndHour: 22})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result.State != StateScheduled {
		t.Fatalf("expected scheduled state, got %s", result.State)
	}
	if !reflect.DeepEqual(result.Failed, []string{"drinkwell.reminder_12"}) {
		t.Fatalf("unexpected failures: %v", result.Failed)
	}
	if got := pendingHours(t, notifier); !reflect.DeepEqual(got, []int{8, 10, 14, 16, 18, 20, 22}) {
		t.Fatalf("expected remaining triggers to stay registered, got %v", got)
	}

	var failures int
	for _, event := range events.Since(0) {
		if event.Kind == EventRegistrationFailed {
			failures++
		}
	}
	if failures != 1 {
		t.Fatalf("expected one registration failure event, got %d", failures)
	}
}

func TestReminderSchedulerCustomReminders(t *testing.T) {
	center := setupGrantedCenter(t, "reminder-custom")
	scheduler := NewReminderScheduler(center, nil)
	ctx := context.Background()

	if _, err := scheduler.ScheduleCustom(ctx, CustomReminder{Hour: 9}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for missing title, got %v", err)
	}
	if _, err := scheduler.ScheduleCustom(ctx, CustomReminder{Title: "Tea", Hour: 9, Minute: 75}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation error for bad minute, got %v", err)
	}

	trigger, err := scheduler.ScheduleCustom(ctx, CustomReminder{Title: "Tea", Body: "Green tea counts", Hour: 16, Minute: 30})
	if err != nil {
		t.Fatalf("ScheduleCustom returned error: %v", err)
	}
	if !strings.HasPrefix(trigger.Identifier, "drinkwell.reminder_custom_") || trigger.Clock() != "16:30" {
		t.Fatalf("unexpected custom trigger: %#v", trigger)
	}

	if err := scheduler.Cancel(ctx, trigger.Identifier); err != nil {
		t.Fatalf("Cancel returned error: %v", err)
	}
	if err := scheduler.Cancel(ctx, trigger.Identifier); !errors.Is(err, ErrReminderNotFound) {
		t.Fatalf("expected not found on second cancel, got %v", err)
	}

	if _, err := scheduler.ScheduleCustom(ctx, CustomReminder{Title: "Tea", Hour: 16}); err != nil {
		t.Fatalf("ScheduleCustom returned error: %v", err)
	}
	if _, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 7, StartHour: 8, EndHour: 22}); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := pendingHours(t, center); !reflect.DeepEqual(got, []int{8, 15, 22}) {
		t.Fatalf("expected apply to replace every reminder, got %v", got)
	}
}

func TestReminderSchedulerCustomNeedsPermission(t *testing.T) {
	center := NewNotificationCenter(setupServiceTestDB(t, "reminder-custom-denied"), false)
	scheduler := NewReminderScheduler(center, nil)

	if _, err := scheduler.ScheduleCustom(context.Background(), CustomReminder{Title: "Tea", Hour: 9}); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission error, got %v", err)
	}
}

func TestReminderSchedulerLocalizesPayload(t *testing.T) {
	center := setupGrantedCenter(t, "reminder-locale")
	scheduler := NewReminderScheduler(center, nil)

	result, err := scheduler.Apply(context.Background(), ReminderConfig{Enabled: true, Frequency: 1, StartHour: 8, EndHour: 9, Language: "tr"})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if result.Registered[0].Title != "Su içme zamanı" {
		t.Fatalf("expected turkish title, got %q", result.Registered[0].Title)
	}
	if result.Registered[0].Body == result.Registered[1].Body {
		t.Fatal("expected consecutive reminders to rotate messages")
	}
}

func TestReminderSchedulerMessageFollowsHour(t *testing.T) {
	center := setupGrantedCenter(t, "reminder-message-hour")
	scheduler := NewReminderScheduler(center, nil)
	ctx := context.Background()

	bodyAt := func(result ScheduleResult, hour int) string {
		t.Helper()
		for _, trigger := range result.Registered {
			if trigger.Hour == hour {
				return trigger.Body
			}
		}
		t.Fatalf("no trigger registered at %d in %v", hour, result.Hours)
		return ""
	}

	everyTwo, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 2, StartHour: 8, EndHour: 22})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	everyFour, err := scheduler.Apply(ctx, ReminderConfig{Enabled: true, Frequency: 4, StartHour: 8, EndHour: 22})
	if err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}

	for _, hour := range []int{8, 12, 16, 20} {
		if bodyAt(everyTwo, hour) != bodyAt(everyFour, hour) {
			t.Fatalf("expected %d:00 message to stay the same across frequencies", hour)
		}
	}
}

func TestNextOccurrence(t *testing.T) {
	trigger := Trigger{Hour: 8, Minute: 0}
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{name: "later today", now: time.Date(2025, time.March, 10, 7, 30, 0, 0, serviceTestLoc), want: time.Date(2025, time.March, 10, 8, 0, 0, 0, serviceTestLoc)},
		{name: "same minute", now: time.Date(2025, time.March, 10, 8, 0, 30, 0, serviceTestLoc), want: time.Date(2025, time.March, 10, 8, 0, 0, 0, serviceTestLoc)},
		{name: "tomorrow", now: time.Date(2025, time.March, 10, 9, 0, 0, 0, serviceTestLoc), want: time.Date(2025, time.March, 11, 8, 0, 0, 0, serviceTestLoc)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NextOccurrence(trigger, tc.now); !got.Equal(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
